package gateway

import "hotel-service/internal/models"

// ResponseCodeSuccess is the only gateway response code that settles a payment.
const ResponseCodeSuccess = "00"

// ResponseCodeUserCancelled is returned when the customer abandons the payment page.
const ResponseCodeUserCancelled = "24"

var responseCodeMessages = map[string]string{
	"00": "Transaction successful",
	"07": "Amount deducted, transaction suspected of fraud",
	"09": "Card or account not registered for internet banking",
	"10": "Card or account authentication failed more than 3 times",
	"11": "Payment window expired",
	"12": "Card or account is locked",
	"13": "Wrong one-time password",
	"24": "Customer cancelled the transaction",
	"51": "Insufficient balance",
	"65": "Daily transaction limit exceeded",
	"75": "Issuing bank under maintenance",
	"79": "Wrong payment password too many times",
	"99": "Unknown error",
}

// DescribeResponseCode returns a human readable description of a gateway code.
func DescribeResponseCode(code string) string {
	if msg, ok := responseCodeMessages[code]; ok {
		return msg
	}
	return "Unrecognized response code " + code
}

// Outcome is the pair of terminal states a gateway result drives.
type Outcome struct {
	Payment models.PaymentStatus
	Booking models.BookingStatus
}

// OutcomeFor maps a gateway response code to terminal payment and booking
// states: success confirms the booking, any other code fails the payment and
// cancels the booking.
func OutcomeFor(code string) Outcome {
	if code == ResponseCodeSuccess {
		return Outcome{Payment: models.PaymentStatusPaid, Booking: models.BookingStatusConfirmed}
	}
	return Outcome{Payment: models.PaymentStatusFailed, Booking: models.BookingStatusCancelled}
}
