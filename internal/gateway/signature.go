// Package gateway implements the VNPay redirect protocol: canonical field
// signing, signed payment URLs and verification of returned callbacks.
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash fields never take part in the signing input.
const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// Canonical serializes fields as name=value pairs sorted by name and joined
// with '&'. Empty values are skipped. When encoded is true each value is
// form-encoded the way the gateway encodes outbound requests.
func Canonical(fields map[string]string, encoded bool) string {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if value == "" || name == FieldSecureHash || name == FieldSecureHashType {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		value := fields[name]
		if encoded {
			value = encodeValue(value)
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
	}
	return sb.String()
}

// Sign returns the hex HMAC-SHA512 of the raw canonical form. This is the
// form the gateway signs its callbacks with.
func Sign(fields map[string]string, secret string) string {
	return hmacSHA512(secret, Canonical(fields, false))
}

// SignEncoded returns the hex HMAC-SHA512 of the encoded canonical form,
// used for outbound payment requests.
func SignEncoded(fields map[string]string, secret string) string {
	return hmacSHA512(secret, Canonical(fields, true))
}

// Verify recomputes the raw-form signature of fields (hash fields excluded)
// and compares it with providedHash in constant time. Hex case is ignored.
func Verify(fields map[string]string, secret, providedHash string) bool {
	if providedHash == "" {
		return false
	}
	expected := Sign(fields, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(providedHash)))
}

// SignParams returns a copy of params carrying a raw-form vnp_SecureHash,
// the way the gateway signs the callbacks it sends.
func SignParams(params map[string]string, secret string) map[string]string {
	signed := make(map[string]string, len(params)+1)
	for name, value := range params {
		signed[name] = value
	}
	signed[FieldSecureHash] = Sign(params, secret)
	return signed
}

// EncodeQuery builds the outbound query string: sorted, non-empty fields
// with form-encoded names and values.
func EncodeQuery(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(encodeValue(name))
		sb.WriteByte('=')
		sb.WriteString(encodeValue(fields[name]))
	}
	return sb.String()
}

func hmacSHA512(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeValue applies application/x-www-form-urlencoded encoding over the
// US-ASCII charset: alphanumerics and ".-*_" pass through, space becomes '+',
// every other byte is %XX and non-ASCII characters become an encoded '?'.
// url.QueryEscape differs on '*' and '~', which changes the signature.
func encodeValue(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '*', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('+')
		case r > 0x7f:
			sb.WriteString("%3F")
		default:
			sb.WriteByte('%')
			sb.WriteByte(hexDigits[byte(r)>>4])
			sb.WriteByte(hexDigits[byte(r)&0x0f])
		}
	}
	return sb.String()
}
