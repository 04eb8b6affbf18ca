package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/booking"
	"hotel-service/internal/models"
	"hotel-service/internal/store"
	"hotel-service/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DateLayout is the calendar date format accepted for stays.
const DateLayout = "2006-01-02"

var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// BookingService handles the booking lifecycle outside of payment callbacks
type BookingService struct {
	repo      store.Repository
	publisher EventPublisher
	policy    booking.Policy
	clock     clockwork.Clock
	logger    *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(repo store.Repository, publisher EventPublisher, policy booking.Policy, clock clockwork.Clock) *BookingService {
	return &BookingService{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		clock:     clock,
		logger:    util.GetLogger(),
	}
}

// CreateBookingRequest represents a request to book a room
type CreateBookingRequest struct {
	UserID       int64  `json:"user_id" binding:"required,gt=0"`
	RoomID       int64  `json:"room_id" binding:"required,gt=0"`
	CheckInDate  string `json:"check_in_date" binding:"required"`
	CheckOutDate string `json:"check_out_date" binding:"required"`
}

// CreateBooking reserves a room for the requested stay. The room row is
// locked while overlapping bookings are counted so two requests cannot
// book the same nights.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (_ *models.Booking, err error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer func() { util.EndSpan(span, err) }()

	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("invalid booking request: %v", err)
	}
	checkIn, checkOut, err := s.parseStay(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		UserID:       req.UserID,
		RoomID:       req.RoomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       models.BookingStatusPending,
	}

	err = s.repo.WithTx(ctx, func(tx store.Tx) error {
		room, err := tx.LockRoomForUpdate(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.Available {
			return apperr.Conflict("room %d is not available", room.ID)
		}

		overlapping, err := tx.CountOverlappingBookings(ctx, room.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperr.Conflict("room %d is already booked for the selected dates", room.ID)
		}

		b.TotalPrice = TotalPrice(room.PricePerNight, checkIn, checkOut)
		b.BookingReference = s.newReference()
		return tx.CreateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.Int64("booking_id", b.ID),
		zap.String("reference", b.BookingReference),
		zap.String("total_price", b.TotalPrice.StringFixed(2)))

	if err := s.publisher.PublishBookingCreated(ctx, b); err != nil {
		s.logger.Error("Failed to publish BookingCreated event", zap.Int64("booking_id", b.ID), zap.Error(err))
	}
	return b, nil
}

func (s *BookingService) parseStay(in, out string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(DateLayout, in)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid check-in date %q", in)
	}
	checkOut, err := time.Parse(DateLayout, out)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid check-out date %q", out)
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, apperr.Validation("check-out date must be after check-in date")
	}

	y, m, d := s.clock.Now().In(s.policy.Zone()).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, apperr.Validation("check-in date is in the past")
	}
	return checkIn, checkOut, nil
}

// TotalPrice is the nightly price times the number of nights, charging at least one night.
func TotalPrice(pricePerNight decimal.Decimal, checkIn, checkOut time.Time) decimal.Decimal {
	nights := int64(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return pricePerNight.Mul(decimal.NewFromInt(nights))
}

// newReference returns an HB-XXXXXXXX-NNNN booking reference.
func (s *BookingService) newReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("HB-%s-%04d", id, s.clock.Now().UnixMilli()%10000)
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	if id <= 0 {
		return nil, apperr.Validation("booking id is required")
	}
	return s.repo.GetBookingByID(ctx, id)
}

// CancelBooking cancels a booking at least the cutoff before check-in. A paid
// payment is marked refunded in the same transaction.
func (s *BookingService) CancelBooking(ctx context.Context, id int64, reason string) (_ *models.Booking, err error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelBooking")
	defer func() { util.EndSpan(span, err) }()

	var (
		from     models.BookingStatus
		refunded *models.Payment
	)
	b, err := s.transition(ctx, id, models.BookingStatusCancelled, func(tx store.Tx, b *models.Booking) error {
		if err := s.policy.CheckCancel(b, s.clock.Now()); err != nil {
			return err
		}
		from = b.Status

		payment, err := tx.GetPaymentByBookingID(ctx, b.ID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Status == models.PaymentStatusPaid {
			if err := tx.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusRefunded); err != nil {
				return err
			}
			payment.Status = models.PaymentStatusRefunded
			refunded = payment
		}
		return nil
	})
	if err != nil {
		util.BookingTransitionsRejected.WithLabelValues("cancel").Inc()
		return nil, err
	}

	util.BookingsCancelledTotal.WithLabelValues("guest").Inc()
	s.logger.Info("Booking cancelled", zap.Int64("booking_id", b.ID), zap.Bool("refunded", refunded != nil))

	if refunded != nil {
		util.PaymentRefundedTotal.Inc()
		if err := s.publisher.PublishPayment(ctx, refunded); err != nil {
			s.logger.Error("Failed to publish PaymentRefunded event", zap.Int64("booking_id", b.ID), zap.Error(err))
		}
	}
	s.publishStatus(ctx, b.ID, from, b.Status, reason)
	return b, nil
}

// ConfirmBooking confirms a pending booking without an online payment
func (s *BookingService) ConfirmBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.simpleTransition(ctx, id, models.BookingStatusConfirmed, "confirm", nil)
}

// CheckIn marks a confirmed booking as checked in, from the check-in date on
func (s *BookingService) CheckIn(ctx context.Context, id int64) (*models.Booking, error) {
	return s.simpleTransition(ctx, id, models.BookingStatusCheckedIn, "check_in", func(b *models.Booking) error {
		return s.policy.CheckCheckIn(b, s.clock.Now())
	})
}

// CheckOut marks a checked-in booking as checked out
func (s *BookingService) CheckOut(ctx context.Context, id int64) (*models.Booking, error) {
	return s.simpleTransition(ctx, id, models.BookingStatusCheckedOut, "check_out", nil)
}

func (s *BookingService) simpleTransition(ctx context.Context, id int64, to models.BookingStatus, action string, guard func(*models.Booking) error) (_ *models.Booking, err error) {
	ctx, span := util.StartSpan(ctx, "BookingService."+action)
	defer func() { util.EndSpan(span, err) }()

	var from models.BookingStatus
	b, err := s.transition(ctx, id, to, func(tx store.Tx, b *models.Booking) error {
		from = b.Status
		if guard != nil {
			return guard(b)
		}
		return nil
	})
	if err != nil {
		util.BookingTransitionsRejected.WithLabelValues(action).Inc()
		return nil, err
	}

	s.logger.Info("Booking status changed",
		zap.Int64("booking_id", b.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	s.publishStatus(ctx, b.ID, from, to, action)
	return b, nil
}

// transition locks the booking, runs before, applies the status change and commits.
func (s *BookingService) transition(ctx context.Context, id int64, to models.BookingStatus, before func(tx store.Tx, b *models.Booking) error) (*models.Booking, error) {
	if id <= 0 {
		return nil, apperr.Validation("booking id is required")
	}

	var b *models.Booking
	err := s.repo.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := before(tx, locked); err != nil {
			return err
		}
		if err := booking.Transition(locked, to); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, locked.ID, locked.Status); err != nil {
			return err
		}
		b = locked
		return nil
	})
	return b, err
}

func (s *BookingService) publishStatus(ctx context.Context, id int64, from, to models.BookingStatus, reason string) {
	if err := s.publisher.PublishBookingStatus(ctx, id, from, to, reason); err != nil {
		s.logger.Error("Failed to publish booking status event", zap.Int64("booking_id", id), zap.Error(err))
	}
}
