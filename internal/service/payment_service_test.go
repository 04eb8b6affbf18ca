package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/gateway"
	"hotel-service/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentService(t *testing.T, repo *memRepo, locker *fakeLocker) *PaymentService {
	builder := gateway.NewRequestBuilder(testGatewayConfig(t), clockwork.NewFakeClockAt(testNow))
	return NewPaymentService(repo, builder, locker, 10*time.Second)
}

func TestCreatePaymentURL(t *testing.T) {
	repo := newMemRepo()
	repo.addBooking(pendingBooking(42))
	locker := newFakeLocker()
	svc := newPaymentService(t, repo, locker)

	req, err := svc.CreatePaymentURL(context.Background(), 42, "203.0.113.9")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.URL, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))
	assert.Contains(t, req.URL, "vnp_Amount=100000000")
	assert.Equal(t, "42-1709262000000", req.TxnRef)
	assert.Empty(t, locker.held)
	assert.Equal(t, 0, repo.paymentCount())
}

func TestCreatePaymentURLRejectsNonPending(t *testing.T) {
	repo := newMemRepo()
	b := pendingBooking(42)
	b.Status = models.BookingStatusConfirmed
	repo.addBooking(b)
	svc := newPaymentService(t, repo, newFakeLocker())

	_, err := svc.CreatePaymentURL(context.Background(), 42, "203.0.113.9")
	assert.Equal(t, apperr.KindPaymentProcessing, apperr.KindOf(err))
}

func TestCreatePaymentURLRejectsExistingPayment(t *testing.T) {
	repo := newMemRepo()
	repo.addBooking(pendingBooking(42))
	repo.addPayment(models.Payment{ID: 1, BookingID: 42, Status: models.PaymentStatusFailed, TransactionID: "1"})
	svc := newPaymentService(t, repo, newFakeLocker())

	_, err := svc.CreatePaymentURL(context.Background(), 42, "203.0.113.9")
	assert.Equal(t, apperr.KindPaymentProcessing, apperr.KindOf(err))
}

func TestCreatePaymentURLWhileLocked(t *testing.T) {
	repo := newMemRepo()
	repo.addBooking(pendingBooking(42))
	locker := newFakeLocker()
	_, err := locker.AcquireLock(context.Background(), "payment-url:42", time.Second)
	require.NoError(t, err)
	svc := newPaymentService(t, repo, locker)

	_, err = svc.CreatePaymentURL(context.Background(), 42, "203.0.113.9")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreatePaymentURLValidation(t *testing.T) {
	repo := newMemRepo()
	repo.addBooking(pendingBooking(42))
	svc := newPaymentService(t, repo, newFakeLocker())
	ctx := context.Background()

	_, err := svc.CreatePaymentURL(ctx, 0, "203.0.113.9")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreatePaymentURL(ctx, 99, "203.0.113.9")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.CreatePaymentURL(ctx, 42, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetPayment(t *testing.T) {
	repo := newMemRepo()
	repo.addBooking(pendingBooking(42))
	svc := newPaymentService(t, repo, newFakeLocker())
	ctx := context.Background()

	_, err := svc.GetPayment(ctx, 42)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	repo.addPayment(models.Payment{ID: 1, BookingID: 42, Status: models.PaymentStatusPaid, TransactionID: "14012345"})
	payment, err := svc.GetPayment(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "14012345", payment.TransactionID)
}
