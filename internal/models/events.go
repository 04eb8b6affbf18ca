package models

import "time"

// Event types
const (
	EventTypeBookingCreated    = "BOOKING_CREATED"
	EventTypeBookingConfirmed  = "BOOKING_CONFIRMED"
	EventTypeBookingCancelled  = "BOOKING_CANCELLED"
	EventTypeBookingCheckedIn  = "BOOKING_CHECKED_IN"
	EventTypeBookingCheckedOut = "BOOKING_CHECKED_OUT"
	EventTypePaymentCompleted  = "PAYMENT_COMPLETED"
	EventTypePaymentFailed     = "PAYMENT_FAILED"
	EventTypePaymentRefunded   = "PAYMENT_REFUNDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a booking is placed
type BookingCreatedEvent struct {
	BaseEvent
	BookingID        int64  `json:"booking_id"`
	UserID           int64  `json:"user_id"`
	RoomID           int64  `json:"room_id"`
	BookingReference string `json:"booking_reference"`
	TotalPrice       string `json:"total_price"`
}

// BookingStatusEvent published on confirm, cancel, check-in and check-out
type BookingStatusEvent struct {
	BaseEvent
	BookingID int64         `json:"booking_id"`
	From      BookingStatus `json:"from"`
	To        BookingStatus `json:"to"`
	Reason    string        `json:"reason,omitempty"`
}

// PaymentEvent published when a gateway result is reconciled or a payment is refunded
type PaymentEvent struct {
	BaseEvent
	BookingID     int64         `json:"booking_id"`
	PaymentID     int64         `json:"payment_id"`
	Amount        string        `json:"amount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	ResponseCode  string        `json:"response_code,omitempty"`
}
