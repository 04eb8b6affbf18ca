package store

import (
	"context"
	"database/sql"
	"errors"

	"hotel-service/internal/apperr"
	"hotel-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, booking_id, amount, method, status, transaction_id,
	payment_reference, response_code, created_at, updated_at`

// GetPaymentByBookingID returns the payment of a booking, or nil when none exists
func (q queries) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	return q.getPayment(ctx, "SELECT "+paymentColumns+" FROM payments WHERE booking_id = $1", bookingID)
}

// GetPaymentByTransactionID returns the payment recorded for a gateway transaction, or nil
func (q queries) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	return q.getPayment(ctx, "SELECT "+paymentColumns+" FROM payments WHERE transaction_id = $1", transactionID)
}

func (q queries) getPayment(ctx context.Context, query string, arg interface{}) (*models.Payment, error) {
	var payment models.Payment
	err := sqlx.GetContext(ctx, q.q, &payment, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load payment")
	}
	return &payment, nil
}

// CreatePayment creates a new payment record
func (q queries) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, method, status, transaction_id, payment_reference, response_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := sqlx.GetContext(ctx, q.q, payment, query,
		payment.BookingID, payment.Amount, payment.Method, string(payment.Status),
		payment.TransactionID, payment.PaymentReference, payment.ResponseCode)
	if err != nil {
		return mapError(err, "failed to create payment")
	}
	return nil
}

// UpdatePaymentStatus updates payment status
func (q queries) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id)
	if err != nil {
		return apperr.Internal(err, "failed to update payment %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "failed to update payment %d", id)
	}
	if n == 0 {
		return apperr.NotFound("payment not found: %d", id)
	}
	return nil
}
