package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

// Booking statuses
const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn  BookingStatus = "CHECKED_IN"
	BookingStatusCheckedOut BookingStatus = "CHECKED_OUT"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	BookingStatusPaid       BookingStatus = "PAID"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCheckedIn,
		BookingStatusCheckedOut, BookingStatusCancelled, BookingStatusPaid:
		return true
	}
	return false
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether no further gateway result may change the payment.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// Payment methods
const (
	PaymentMethodVNPay = "VNPAY"
)

// Room represents a bookable room
type Room struct {
	ID            int64           `db:"id" json:"id"`
	RoomNumber    string          `db:"room_number" json:"room_number"`
	PricePerNight decimal.Decimal `db:"price_per_night" json:"price_per_night"`
	Available     bool            `db:"available" json:"available"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Booking represents a room reservation
type Booking struct {
	ID               int64           `db:"id" json:"id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	RoomID           int64           `db:"room_id" json:"room_id"`
	CheckInDate      time.Time       `db:"check_in_date" json:"check_in_date"`
	CheckOutDate     time.Time       `db:"check_out_date" json:"check_out_date"`
	TotalPrice       decimal.Decimal `db:"total_price" json:"total_price"`
	Status           BookingStatus   `db:"status" json:"status"`
	BookingReference string          `db:"booking_reference" json:"booking_reference"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Payment represents the single gateway payment of a booking
type Payment struct {
	ID               int64           `db:"id" json:"id"`
	BookingID        int64           `db:"booking_id" json:"booking_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Method           string          `db:"method" json:"method"`
	Status           PaymentStatus   `db:"status" json:"status"`
	TransactionID    string          `db:"transaction_id" json:"transaction_id"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference"`
	ResponseCode     string          `db:"response_code" json:"response_code"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// MinorUnits converts a decimal amount into the gateway's integer minor units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
