package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, user_id, room_id, check_in_date, check_out_date, total_price,
	status, booking_reference, created_at, updated_at`

// GetBookingByID retrieves a booking by ID
func (q queries) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := sqlx.GetContext(ctx, q.q, &booking,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking not found: %d", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load booking %d", id)
	}
	return &booking, nil
}

// LockBookingForUpdate loads a booking and holds its row lock until the transaction ends
func (q queries) LockBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := sqlx.GetContext(ctx, q.q, &booking,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking not found: %d", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to lock booking %d", id)
	}
	return &booking, nil
}

// UpdateBookingStatus updates booking status
func (q queries) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id)
	if err != nil {
		return apperr.Internal(err, "failed to update booking %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "failed to update booking %d", id)
	}
	if n == 0 {
		return apperr.NotFound("booking not found: %d", id)
	}
	return nil
}

// CreateBooking inserts a booking and fills in its generated columns
func (q queries) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, room_id, check_in_date, check_out_date, total_price, status, booking_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := sqlx.GetContext(ctx, q.q, booking, query,
		booking.UserID, booking.RoomID, booking.CheckInDate, booking.CheckOutDate,
		booking.TotalPrice, string(booking.Status), booking.BookingReference)
	if err != nil {
		return mapError(err, "failed to create booking")
	}
	return nil
}

// CountOverlappingBookings counts live bookings of a room whose stay intersects [checkIn, checkOut)
func (q queries) CountOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.q, &count, `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = $1
		  AND status NOT IN ('CANCELLED', 'CHECKED_OUT')
		  AND check_in_date < $3
		  AND check_out_date > $2`,
		roomID, checkIn, checkOut)
	if err != nil {
		return 0, apperr.Internal(err, "failed to check room %d availability", roomID)
	}
	return count, nil
}
