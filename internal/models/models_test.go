package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000000), MinorUnits(decimal.NewFromInt(1000000)))
	assert.Equal(t, int64(150050), MinorUnits(decimal.RequireFromString("1500.50")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestBookingStatusValid(t *testing.T) {
	assert.True(t, BookingStatusCheckedIn.Valid())
	assert.False(t, BookingStatus("COMPLETED").Valid())
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.Terminal())
	assert.True(t, PaymentStatusPaid.Terminal())
	assert.True(t, PaymentStatusFailed.Terminal())
}
