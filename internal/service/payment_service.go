package service

import (
	"context"
	"fmt"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/gateway"
	"hotel-service/internal/models"
	"hotel-service/internal/store"
	"hotel-service/internal/util"

	"go.uber.org/zap"
)

// PaymentService issues signed gateway redirects for pending bookings
type PaymentService struct {
	repo    store.Repository
	builder *gateway.RequestBuilder
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo store.Repository, builder *gateway.RequestBuilder, locker Locker, lockTTL time.Duration) *PaymentService {
	return &PaymentService{
		repo:    repo,
		builder: builder,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  util.GetLogger(),
	}
}

func paymentURLLockKey(bookingID int64) string {
	return fmt.Sprintf("payment-url:%d", bookingID)
}

// CreatePaymentURL builds a signed payment URL for a pending booking that has
// no payment yet. Concurrent requests for the same booking are serialized.
func (s *PaymentService) CreatePaymentURL(ctx context.Context, bookingID int64, clientIP string) (_ *gateway.PaymentRequest, err error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePaymentURL")
	defer func() { util.EndSpan(span, err) }()

	if bookingID <= 0 {
		return nil, apperr.Validation("booking id is required")
	}

	lockKey := paymentURLLockKey(bookingID)
	token, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, apperr.Internal(err, "failed to lock booking %d", bookingID)
	}
	if token == "" {
		return nil, apperr.Conflict("a payment request for booking %d is already in progress", bookingID)
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), lockKey, token); err != nil {
			s.logger.Warn("Failed to release payment url lock", zap.Int64("booking_id", bookingID), zap.Error(err))
		}
	}()

	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.PaymentProcessing("booking %d already has a %s payment", bookingID, existing.Status)
	}

	req, err := s.builder.Build(booking, clientIP)
	if err != nil {
		return nil, err
	}

	util.PaymentURLsBuiltTotal.Inc()
	s.logger.Info("Payment URL created",
		zap.Int64("booking_id", bookingID),
		zap.String("txn_ref", req.TxnRef),
		zap.Int64("amount_minor", req.AmountMinor),
		zap.Time("expires_at", req.ExpiresAt))

	return req, nil
}

// GetPayment returns the payment of a booking
func (s *PaymentService) GetPayment(ctx context.Context, bookingID int64) (*models.Payment, error) {
	if _, err := s.repo.GetBookingByID(ctx, bookingID); err != nil {
		return nil, err
	}
	payment, err := s.repo.GetPaymentByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.NotFound("no payment for booking %d", bookingID)
	}
	return payment, nil
}
