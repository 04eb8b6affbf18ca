// Package booking holds the booking lifecycle rules shared by the API and the
// payment reconciler.
package booking

import (
	"fmt"
	"time"

	"hotel-service/config"
	"hotel-service/internal/apperr"
	"hotel-service/internal/models"
)

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCheckedIn, models.BookingStatusCancelled},
	models.BookingStatusCheckedIn: {models.BookingStatusCheckedOut},
	// rows written before confirmation replaced PAID can still be cancelled
	models.BookingStatusPaid: {models.BookingStatusCancelled},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves b to status to, or returns an IllegalState error and leaves b untouched.
func Transition(b *models.Booking, to models.BookingStatus) error {
	if !to.Valid() {
		return apperr.Validation("unknown booking status %q", to)
	}
	if !CanTransition(b.Status, to) {
		return apperr.IllegalState("booking %d cannot move from %s to %s", b.ID, b.Status, to)
	}
	b.Status = to
	return nil
}

// Policy carries the hotel's time-based booking rules.
type Policy struct {
	CancellationCutoff time.Duration
	CheckInHour        int
	Location           *time.Location
}

// NewPolicy builds a Policy from the business configuration.
func NewPolicy(c config.BusinessConfig) (Policy, error) {
	loc, err := time.LoadLocation(c.HotelTimezone)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to load hotel timezone: %w", err)
	}
	return Policy{
		CancellationCutoff: c.CancellationCutoff,
		CheckInHour:        c.CheckInHour,
		Location:           loc,
	}, nil
}

// CheckInAt is the check-in date at the check-in hour, in the hotel timezone.
func (p Policy) CheckInAt(b *models.Booking) time.Time {
	y, m, d := b.CheckInDate.Date()
	return time.Date(y, m, d, p.CheckInHour, 0, 0, 0, p.Zone())
}

// CheckCancel returns nil when b may be cancelled at now.
func (p Policy) CheckCancel(b *models.Booking, now time.Time) error {
	if b.Status == models.BookingStatusCancelled {
		return apperr.IllegalState("booking %d is already cancelled", b.ID)
	}
	if !CanTransition(b.Status, models.BookingStatusCancelled) {
		return apperr.IllegalState("booking %d cannot be cancelled in status %s", b.ID, b.Status)
	}
	if p.CheckInAt(b).Sub(now) < p.CancellationCutoff {
		return apperr.IllegalState("booking %d cannot be cancelled less than %s before check-in",
			b.ID, p.CancellationCutoff)
	}
	return nil
}

// CheckCheckIn returns nil when b may be checked in at now. Guests may not
// check in before the check-in date.
func (p Policy) CheckCheckIn(b *models.Booking, now time.Time) error {
	if !CanTransition(b.Status, models.BookingStatusCheckedIn) {
		return apperr.IllegalState("booking %d cannot be checked in from status %s", b.ID, b.Status)
	}
	y, m, d := b.CheckInDate.Date()
	if now.In(p.Zone()).Before(time.Date(y, m, d, 0, 0, 0, 0, p.Zone())) {
		return apperr.IllegalState("booking %d check-in date has not been reached", b.ID)
	}
	return nil
}

// Zone is the hotel timezone, UTC when unset.
func (p Policy) Zone() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
