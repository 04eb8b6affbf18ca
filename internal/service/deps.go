package service

import (
	"context"
	"time"

	"hotel-service/internal/models"
)

// EventPublisher publishes domain events after a transaction commits.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, b *models.Booking) error
	PublishBookingStatus(ctx context.Context, bookingID int64, from, to models.BookingStatus, reason string) error
	PublishPayment(ctx context.Context, p *models.Payment) error
}

// ReplayCache remembers which booking each reconciled gateway transaction
// belongs to.
type ReplayCache interface {
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
}

// Locker hands out short-lived exclusive locks.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}
