package service

import (
	"context"
	"strconv"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/booking"
	"hotel-service/internal/gateway"
	"hotel-service/internal/models"
	"hotel-service/internal/store"
	"hotel-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAmountMismatch is returned when the gateway reports an amount other than the booking total.
var ErrAmountMismatch = apperr.Validation("callback amount does not match booking total")

// ReconcileResult is the stored outcome of a gateway callback.
type ReconcileResult struct {
	Payment       *models.Payment
	BookingStatus models.BookingStatus
	// Replayed is set when the transaction had already been reconciled.
	Replayed bool
}

// PaymentReconciler applies verified gateway callbacks to bookings and payments.
type PaymentReconciler struct {
	repo      store.Repository
	verifier  *gateway.CallbackVerifier
	publisher EventPublisher
	cache     ReplayCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPaymentReconciler creates a reconciler
func NewPaymentReconciler(
	repo store.Repository,
	verifier *gateway.CallbackVerifier,
	publisher EventPublisher,
	cache ReplayCache,
	cacheTTL time.Duration,
) *PaymentReconciler {
	return &PaymentReconciler{
		repo:      repo,
		verifier:  verifier,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// Reconcile verifies params and records the result exactly once per gateway
// transaction. The booking row stays locked from the idempotency check until
// the payment and the new booking status are committed together.
func (r *PaymentReconciler) Reconcile(ctx context.Context, params map[string]string) (result *ReconcileResult, err error) {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.Reconcile")
	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
		util.CallbacksTotal.WithLabelValues(callbackOutcome(result, err)).Inc()
		util.EndSpan(span, err)
	}()

	cb, err := r.verifier.Verify(params)
	if err != nil {
		r.logRejected(params, err)
		return nil, err
	}

	if result := r.lookupReplay(ctx, cb); result != nil {
		return result, nil
	}

	err = r.repo.WithTx(ctx, func(tx store.Tx) error {
		var txErr error
		result, txErr = r.apply(ctx, tx, cb)
		return txErr
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			r.logger.Error("Callback reconciliation failed",
				zap.String("txn_ref", cb.TxnRef),
				zap.String("transaction_no", cb.TransactionNo),
				zap.Error(err))
		} else {
			r.logger.Warn("Callback rejected",
				zap.String("txn_ref", cb.TxnRef),
				zap.String("transaction_no", cb.TransactionNo),
				zap.String("reason", err.Error()))
		}
		return nil, err
	}

	r.remember(ctx, result.Payment)

	if result.Replayed {
		util.CallbackReplaysTotal.Inc()
		r.logger.Info("Duplicate callback answered from stored payment",
			zap.Int64("booking_id", cb.BookingID),
			zap.String("transaction_no", cb.TransactionNo))
		return result, nil
	}

	r.afterCommit(ctx, result.Payment, cb)
	return result, nil
}

func (r *PaymentReconciler) apply(ctx context.Context, tx store.Tx, cb *gateway.Callback) (*ReconcileResult, error) {
	b, err := tx.LockBookingForUpdate(ctx, cb.BookingID)
	if err != nil {
		return nil, err
	}

	existing, err := tx.GetPaymentByTransactionID(ctx, cb.TransactionNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.BookingID != b.ID {
			return nil, apperr.Conflict("transaction %s is already recorded for another booking", cb.TransactionNo)
		}
		return &ReconcileResult{Payment: existing, BookingStatus: b.Status, Replayed: true}, nil
	}

	settled, err := tx.GetPaymentByBookingID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if settled != nil {
		return nil, apperr.IllegalState("booking %d already has a %s payment", b.ID, settled.Status)
	}

	if b.Status != models.BookingStatusPending {
		return nil, apperr.IllegalState("booking %d is not awaiting payment (status %s)", b.ID, b.Status)
	}
	if cb.HasAmount && cb.AmountMinor != models.MinorUnits(b.TotalPrice) {
		return nil, ErrAmountMismatch
	}

	outcome := gateway.OutcomeFor(cb.ResponseCode)
	if err := booking.Transition(b, outcome.Booking); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BookingID:        b.ID,
		Amount:           b.TotalPrice,
		Method:           models.PaymentMethodVNPay,
		Status:           outcome.Payment,
		TransactionID:    cb.TransactionNo,
		PaymentReference: "PAY-" + uuid.New().String(),
		ResponseCode:     cb.ResponseCode,
	}
	if err := tx.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := tx.UpdateBookingStatus(ctx, b.ID, b.Status); err != nil {
		return nil, err
	}

	return &ReconcileResult{Payment: payment, BookingStatus: b.Status}, nil
}

// lookupReplay answers a cached transaction from the stored payment without
// taking the booking lock. A cache miss or a stale entry falls through.
func (r *PaymentReconciler) lookupReplay(ctx context.Context, cb *gateway.Callback) *ReconcileResult {
	cached, seen, err := r.cache.GetIdempotencyKey(ctx, cb.TransactionNo)
	if err != nil {
		r.logger.Warn("Replay cache unavailable", zap.Error(err))
		return nil
	}
	if !seen {
		return nil
	}
	// a transaction cached for another booking is settled under the row lock
	if cached != strconv.FormatInt(cb.BookingID, 10) {
		return nil
	}

	payment, err := r.repo.GetPaymentByTransactionID(ctx, cb.TransactionNo)
	if err != nil || payment == nil || payment.BookingID != cb.BookingID {
		return nil
	}
	b, err := r.repo.GetBookingByID(ctx, payment.BookingID)
	if err != nil {
		return nil
	}

	util.CallbackReplaysTotal.Inc()
	r.logger.Info("Duplicate callback answered from replay cache",
		zap.Int64("booking_id", b.ID),
		zap.String("transaction_no", cb.TransactionNo))
	return &ReconcileResult{Payment: payment, BookingStatus: b.Status, Replayed: true}
}

func (r *PaymentReconciler) remember(ctx context.Context, p *models.Payment) {
	if err := r.cache.SetIdempotencyKey(ctx, p.TransactionID, strconv.FormatInt(p.BookingID, 10), r.cacheTTL); err != nil {
		r.logger.Warn("Failed to store replay key", zap.String("transaction_no", p.TransactionID), zap.Error(err))
	}
}

func (r *PaymentReconciler) afterCommit(ctx context.Context, p *models.Payment, cb *gateway.Callback) {
	outcome := gateway.OutcomeFor(cb.ResponseCode)

	if cb.Succeeded() {
		util.PaymentSuccessTotal.Inc()
		r.logger.Info("Payment completed",
			zap.Int64("booking_id", p.BookingID),
			zap.String("transaction_no", p.TransactionID),
			zap.String("bank_code", cb.BankCode))
	} else {
		util.PaymentFailedTotal.WithLabelValues(cb.ResponseCode).Inc()
		util.BookingsCancelledTotal.WithLabelValues("payment_failed").Inc()
		r.logger.Warn("Payment failed",
			zap.Int64("booking_id", p.BookingID),
			zap.String("transaction_no", p.TransactionID),
			zap.String("response_code", cb.ResponseCode),
			zap.String("reason", gateway.DescribeResponseCode(cb.ResponseCode)))
	}

	if err := r.publisher.PublishPayment(ctx, p); err != nil {
		r.logger.Error("Failed to publish payment event", zap.Int64("booking_id", p.BookingID), zap.Error(err))
	}
	reason := gateway.DescribeResponseCode(cb.ResponseCode)
	if err := r.publisher.PublishBookingStatus(ctx, p.BookingID, models.BookingStatusPending, outcome.Booking, reason); err != nil {
		r.logger.Error("Failed to publish booking event", zap.Int64("booking_id", p.BookingID), zap.Error(err))
	}
}

// logRejected logs a callback that failed verification. Only field names,
// the transaction reference and the response code are recorded.
func (r *PaymentReconciler) logRejected(params map[string]string, err error) {
	fields := []zap.Field{
		zap.Strings("fields", gateway.RedactedFieldNames(params)),
		zap.String("txn_ref", params[gateway.FieldTxnRef]),
		zap.String("response_code", params[gateway.FieldResponseCode]),
	}
	if apperr.Is(err, apperr.KindSignatureMismatch) {
		util.SignatureMismatchTotal.Inc()
		r.logger.Warn("Callback signature mismatch", fields...)
		return
	}
	r.logger.Warn("Malformed callback", append(fields, zap.String("reason", err.Error()))...)
}

func callbackOutcome(result *ReconcileResult, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return "replay"
	case err == nil && result != nil && result.Payment.Status == models.PaymentStatusPaid:
		return "paid"
	case err == nil:
		return "failed"
	case apperr.Is(err, apperr.KindSignatureMismatch):
		return "invalid_signature"
	case apperr.Is(err, apperr.KindInternal):
		return "error"
	default:
		return "rejected"
	}
}
