package gateway

import (
	"fmt"
	"strconv"
	"time"

	"hotel-service/config"
	"hotel-service/internal/apperr"
	"hotel-service/internal/models"

	"github.com/jonboulle/clockwork"
)

// TimestampLayout is the gateway's yyyyMMddHHmmss timestamp format.
const TimestampLayout = "20060102150405"

// Outbound request fields
const (
	FieldVersion    = "vnp_Version"
	FieldCommand    = "vnp_Command"
	FieldTmnCode    = "vnp_TmnCode"
	FieldAmount     = "vnp_Amount"
	FieldCurrCode   = "vnp_CurrCode"
	FieldTxnRef     = "vnp_TxnRef"
	FieldOrderInfo  = "vnp_OrderInfo"
	FieldOrderType  = "vnp_OrderType"
	FieldLocale     = "vnp_Locale"
	FieldReturnURL  = "vnp_ReturnUrl"
	FieldIPAddr     = "vnp_IpAddr"
	FieldCreateDate = "vnp_CreateDate"
	FieldExpireDate = "vnp_ExpireDate"
)

// Config is the immutable gateway configuration handed to the builder and verifier.
type Config struct {
	TmnCode     string
	HashSecret  string
	PayURL      string
	ReturnURL   string
	Version     string
	Command     string
	CurrCode    string
	Locale      string
	OrderType   string
	ExpireAfter time.Duration
	Location    *time.Location
}

// NewConfig converts the loaded gateway settings into a Config value.
func NewConfig(c config.GatewayConfig) (Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load gateway timezone: %w", err)
	}
	return Config{
		TmnCode:     c.TmnCode,
		HashSecret:  c.HashSecret,
		PayURL:      c.PayURL,
		ReturnURL:   c.ReturnURL,
		Version:     c.Version,
		Command:     c.Command,
		CurrCode:    c.CurrCode,
		Locale:      c.Locale,
		OrderType:   c.OrderType,
		ExpireAfter: c.ExpireAfter,
		Location:    loc,
	}, nil
}

// PaymentRequest is a signed outbound payment attempt.
type PaymentRequest struct {
	TxnRef      string
	URL         string
	AmountMinor int64
	Fields      map[string]string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// RequestBuilder assembles signed redirect URLs. It has no side effects.
type RequestBuilder struct {
	cfg   Config
	clock clockwork.Clock
}

// NewRequestBuilder creates a builder for cfg using clock for timestamps
func NewRequestBuilder(cfg Config, clock clockwork.Clock) *RequestBuilder {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &RequestBuilder{cfg: cfg, clock: clock}
}

// Build creates a signed payment request for a pending booking.
func (b *RequestBuilder) Build(booking *models.Booking, clientIP string) (*PaymentRequest, error) {
	if booking == nil || booking.ID <= 0 {
		return nil, apperr.Validation("booking id is required")
	}
	if booking.Status != models.BookingStatusPending {
		return nil, apperr.PaymentProcessing("booking %d is not in pending state", booking.ID)
	}
	if !booking.TotalPrice.IsPositive() {
		return nil, apperr.Validation("invalid booking amount")
	}
	if clientIP == "" {
		return nil, apperr.Validation("client ip is required")
	}

	now := b.clock.Now().In(b.cfg.Location)
	expires := now.Add(b.cfg.ExpireAfter)
	amount := models.MinorUnits(booking.TotalPrice)
	txnRef := fmt.Sprintf("%d-%d", booking.ID, now.UnixMilli())

	fields := map[string]string{
		FieldVersion:    b.cfg.Version,
		FieldCommand:    b.cfg.Command,
		FieldTmnCode:    b.cfg.TmnCode,
		FieldAmount:     strconv.FormatInt(amount, 10),
		FieldCurrCode:   b.cfg.CurrCode,
		FieldTxnRef:     txnRef,
		FieldOrderInfo:  OrderInfo(booking),
		FieldOrderType:  b.cfg.OrderType,
		FieldLocale:     b.cfg.Locale,
		FieldReturnURL:  b.cfg.ReturnURL,
		FieldIPAddr:     clientIP,
		FieldCreateDate: now.Format(TimestampLayout),
		FieldExpireDate: expires.Format(TimestampLayout),
	}

	hash := SignEncoded(fields, b.cfg.HashSecret)

	return &PaymentRequest{
		TxnRef:      txnRef,
		URL:         b.cfg.PayURL + "?" + EncodeQuery(fields) + "&" + FieldSecureHash + "=" + hash,
		AmountMinor: amount,
		Fields:      fields,
		CreatedAt:   now,
		ExpiresAt:   expires,
	}, nil
}

// OrderInfo is the order description shown on the gateway page.
func OrderInfo(booking *models.Booking) string {
	return "Thanh toan dat phong " + booking.BookingReference
}
