package broker

import (
	"context"
	"fmt"
	"time"

	"hotel-service/internal/models"

	"github.com/google/uuid"
)

// EventProducer is the write side of a message topic.
type EventProducer interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventProducer
	now      func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventProducer) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

// BookingKey is the partition key for every event about a booking.
func BookingKey(bookingID int64) string {
	return fmt.Sprintf("booking-%d", bookingID)
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: ep.now(),
	}
}

// PublishBookingCreated publishes BOOKING_CREATED
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, b *models.Booking) error {
	event := &models.BookingCreatedEvent{
		BaseEvent:        ep.base(models.EventTypeBookingCreated),
		BookingID:        b.ID,
		UserID:           b.UserID,
		RoomID:           b.RoomID,
		BookingReference: b.BookingReference,
		TotalPrice:       b.TotalPrice.StringFixed(2),
	}
	return ep.producer.PublishEvent(ctx, BookingKey(b.ID), event)
}

// PublishBookingStatus publishes the event matching the booking's new status
func (ep *EventPublisher) PublishBookingStatus(ctx context.Context, bookingID int64, from, to models.BookingStatus, reason string) error {
	var eventType string
	switch to {
	case models.BookingStatusConfirmed:
		eventType = models.EventTypeBookingConfirmed
	case models.BookingStatusCancelled:
		eventType = models.EventTypeBookingCancelled
	case models.BookingStatusCheckedIn:
		eventType = models.EventTypeBookingCheckedIn
	case models.BookingStatusCheckedOut:
		eventType = models.EventTypeBookingCheckedOut
	default:
		return fmt.Errorf("no event for booking status %s", to)
	}

	event := &models.BookingStatusEvent{
		BaseEvent: ep.base(eventType),
		BookingID: bookingID,
		From:      from,
		To:        to,
		Reason:    reason,
	}
	return ep.producer.PublishEvent(ctx, BookingKey(bookingID), event)
}

// PublishPayment publishes the event matching the payment's status
func (ep *EventPublisher) PublishPayment(ctx context.Context, p *models.Payment) error {
	var eventType string
	switch p.Status {
	case models.PaymentStatusPaid:
		eventType = models.EventTypePaymentCompleted
	case models.PaymentStatusFailed:
		eventType = models.EventTypePaymentFailed
	case models.PaymentStatusRefunded:
		eventType = models.EventTypePaymentRefunded
	default:
		return fmt.Errorf("no event for payment status %s", p.Status)
	}

	event := &models.PaymentEvent{
		BaseEvent:     ep.base(eventType),
		BookingID:     p.BookingID,
		PaymentID:     p.ID,
		Amount:        p.Amount.StringFixed(2),
		Status:        p.Status,
		TransactionID: p.TransactionID,
		ResponseCode:  p.ResponseCode,
	}
	return ep.producer.PublishEvent(ctx, BookingKey(p.BookingID), event)
}
