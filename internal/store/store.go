package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Repository is the read side plus the transaction boundary used by services.
type Repository interface {
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	GetRoomByID(ctx context.Context, id int64) (*models.Room, error)
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes and locking reads available inside a transaction.
type Tx interface {
	LockBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	LockRoomForUpdate(ctx context.Context, id int64) (*models.Room, error)
	CountOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
}

type Store struct {
	queries
	db *sqlx.DB
}

var _ Repository = (*Store)(nil)

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection pool
func New(db *sqlx.DB) *Store {
	return &Store{queries: queries{q: db}, db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Internal(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore{queries: queries{q: sqlTx}}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperr.Internal(err, "failed to commit transaction")
	}
	return nil
}

type txStore struct {
	queries
}

var _ Tx = (*txStore)(nil)

// queries holds the SQL shared by the pool and transactions.
type queries struct {
	q sqlx.ExtContext
}

// mapError classifies driver errors; unique violations become conflicts.
func mapError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Conflict("%s: duplicate %s", op, pqErr.Constraint)
	}
	return apperr.Internal(err, "%s", op)
}
