package api

import (
	"errors"
	"net/http"

	"hotel-service/internal/apperr"
	"hotel-service/internal/gateway"
	"hotel-service/internal/service"

	"github.com/gin-gonic/gin"
)

// IPN acknowledgement codes expected by the gateway
const (
	ipnConfirmed        = "00"
	ipnOrderNotFound    = "01"
	ipnAlreadyConfirmed = "02"
	ipnInvalidAmount    = "04"
	ipnInvalidChecksum  = "97"
	ipnUnknownError     = "99"
)

// createPaymentURL issues a signed gateway redirect for a pending booking
func (h *Handler) createPaymentURL(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	req, err := h.payments.CreatePaymentURL(c.Request.Context(), id, clientIP(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_url": req.URL,
		"txn_ref":     req.TxnRef,
		"expires_at":  req.ExpiresAt,
	})
}

// getPayment returns the payment of a booking
func (h *Handler) getPayment(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	payment, err := h.payments.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// vnpayReturn handles the customer's browser coming back from the gateway
func (h *Handler) vnpayReturn(c *gin.Context) {
	params := gateway.ParamsFromValues(c.Request.URL.Query())

	result, err := h.reconciler.Reconcile(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}

	p := result.Payment
	c.JSON(http.StatusOK, gin.H{
		"booking_id":     p.BookingID,
		"booking_status": result.BookingStatus,
		"payment_status": p.Status,
		"transaction_id": p.TransactionID,
		"response_code":  p.ResponseCode,
		"message":        gateway.DescribeResponseCode(p.ResponseCode),
		"replayed":       result.Replayed,
	})
}

// vnpayIPN handles the gateway's server-to-server notification. The gateway
// always receives HTTP 200 with an acknowledgement code.
func (h *Handler) vnpayIPN(c *gin.Context) {
	params, err := ipnParams(c.Request)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"RspCode": ipnUnknownError, "Message": "Invalid request"})
		return
	}

	_, err = h.reconciler.Reconcile(c.Request.Context(), params)
	code, message := ipnAck(err)
	c.JSON(http.StatusOK, gin.H{"RspCode": code, "Message": message})
}

// ipnParams reads the fields from the query string on GET and only from the
// form body on POST, so the signature covers exactly what the gateway sent.
func ipnParams(r *http.Request) (map[string]string, error) {
	if r.Method != http.MethodPost {
		return gateway.ParamsFromValues(r.URL.Query()), nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return gateway.ParamsFromValues(r.PostForm), nil
}

func ipnAck(err error) (string, string) {
	switch {
	case err == nil:
		return ipnConfirmed, "Confirm Success"
	case errors.Is(err, service.ErrAmountMismatch):
		return ipnInvalidAmount, "Invalid amount"
	}

	switch apperr.KindOf(err) {
	case apperr.KindSignatureMismatch:
		return ipnInvalidChecksum, "Invalid Checksum"
	case apperr.KindNotFound:
		return ipnOrderNotFound, "Order not found"
	case apperr.KindIllegalState:
		return ipnAlreadyConfirmed, "Order already confirmed"
	default:
		return ipnUnknownError, "Unknown error"
	}
}
