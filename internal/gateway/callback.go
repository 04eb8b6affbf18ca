package gateway

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"hotel-service/internal/apperr"
)

// Callback fields returned by the gateway
const (
	FieldResponseCode      = "vnp_ResponseCode"
	FieldTransactionNo     = "vnp_TransactionNo"
	FieldTransactionStatus = "vnp_TransactionStatus"
	FieldBankCode          = "vnp_BankCode"
	FieldPayDate           = "vnp_PayDate"
)

var requiredCallbackFields = []string{
	FieldResponseCode,
	FieldTxnRef,
	FieldTransactionNo,
	FieldSecureHash,
}

// Callback is a gateway result whose signature has been verified.
type Callback struct {
	ResponseCode      string
	TxnRef            string
	TransactionNo     string
	TransactionStatus string
	BookingID         int64
	AmountMinor       int64
	HasAmount         bool
	BankCode          string
	OrderInfo         string
	PayDate           string
}

// Succeeded reports whether the gateway settled the payment.
func (c *Callback) Succeeded() bool {
	return c.ResponseCode == ResponseCodeSuccess
}

// CallbackVerifier validates inbound callbacks against the shared secret.
type CallbackVerifier struct {
	secret string
}

// NewCallbackVerifier creates a verifier for the given secret
func NewCallbackVerifier(secret string) *CallbackVerifier {
	return &CallbackVerifier{secret: secret}
}

// Verify checks required fields, then the signature, then the transaction
// reference. params is not modified.
func (v *CallbackVerifier) Verify(params map[string]string) (*Callback, error) {
	for _, name := range requiredCallbackFields {
		if strings.TrimSpace(params[name]) == "" {
			return nil, apperr.Validation("malformed callback: missing %s", name)
		}
	}

	fields := make(map[string]string, len(params))
	for name, value := range params {
		if name == FieldSecureHash || name == FieldSecureHashType {
			continue
		}
		fields[name] = value
	}

	if !Verify(fields, v.secret, params[FieldSecureHash]) {
		return nil, apperr.SignatureMismatch("invalid signature for txn %s", params[FieldTxnRef])
	}

	bookingID, err := ParseTxnRef(params[FieldTxnRef])
	if err != nil {
		return nil, err
	}

	cb := &Callback{
		ResponseCode:      params[FieldResponseCode],
		TxnRef:            params[FieldTxnRef],
		TransactionNo:     params[FieldTransactionNo],
		TransactionStatus: params[FieldTransactionStatus],
		BookingID:         bookingID,
		BankCode:          params[FieldBankCode],
		OrderInfo:         params[FieldOrderInfo],
		PayDate:           params[FieldPayDate],
	}

	if raw := params[FieldAmount]; raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount < 0 {
			return nil, apperr.Validation("malformed callback: invalid %s", FieldAmount)
		}
		cb.AmountMinor = amount
		cb.HasAmount = true
	}

	return cb, nil
}

// ParseTxnRef extracts the booking id from a "{bookingId}-{suffix}" reference.
func ParseTxnRef(ref string) (int64, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 2 || parts[1] == "" {
		return 0, apperr.Validation("invalid transaction reference format")
	}
	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || bookingID <= 0 {
		return 0, apperr.Validation("invalid transaction reference format")
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, apperr.Validation("invalid transaction reference format")
	}
	return bookingID, nil
}

// ParamsFromValues flattens query or form values, keeping the first value per key.
func ParamsFromValues(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	return params
}

// RedactedFieldNames lists the callback field names without values, for logs.
func RedactedFieldNames(params map[string]string) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
