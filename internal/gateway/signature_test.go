package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "TESTSECRETKEY0123456789"

func TestCanonicalSortsAndSkipsEmpty(t *testing.T) {
	fields := map[string]string{
		"vnp_TxnRef":         "12-1700000000000",
		"vnp_Amount":         "100000000",
		"vnp_BankCode":       "",
		"vnp_SecureHash":     "abc",
		"vnp_SecureHashType": "HmacSHA512",
		"vnp_Command":        "pay",
	}

	assert.Equal(t, "vnp_Amount=100000000&vnp_Command=pay&vnp_TxnRef=12-1700000000000", Canonical(fields, false))
}

func TestCanonicalOrdinalOrder(t *testing.T) {
	// uppercase sorts before lowercase in byte order
	fields := map[string]string{"vnp_b": "1", "vnp_B": "2", "vnp_a": "3"}

	assert.Equal(t, "vnp_B=2&vnp_a=3&vnp_b=1", Canonical(fields, false))
}

func TestCanonicalEncoded(t *testing.T) {
	fields := map[string]string{
		"vnp_OrderInfo": "Thanh toan dat phong HB-1A2B3C4D-0042",
		"vnp_ReturnUrl": "https://hotel.example/return?x=1",
	}

	assert.Equal(t,
		"vnp_OrderInfo=Thanh+toan+dat+phong+HB-1A2B3C4D-0042&vnp_ReturnUrl=https%3A%2F%2Fhotel.example%2Freturn%3Fx%3D1",
		Canonical(fields, true))
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019", "abcXYZ019"},
		{"a b", "a+b"},
		{".-*_", ".-*_"},
		{"~", "%7E"},
		{"a+b", "a%2Bb"},
		{"100%", "100%25"},
		{"Phòng", "Ph%3Fng"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeValue(tt.in), tt.in)
	}
}

func TestSignMatchesHMACOverCanonicalForm(t *testing.T) {
	fields := map[string]string{"b": "2", "a": "x y"}

	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte("a=x y&b=2"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), Sign(fields, testSecret))

	mac = hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte("a=x+y&b=2"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), SignEncoded(fields, testSecret))
}

func TestSignIsDeterministic(t *testing.T) {
	fields := map[string]string{"vnp_Amount": "100", "vnp_TxnRef": "1-2"}

	assert.Equal(t, Sign(fields, testSecret), Sign(fields, testSecret))
	assert.Len(t, Sign(fields, testSecret), 128)
	assert.NotEqual(t, Sign(fields, testSecret), Sign(fields, "other-secret"))
}

func randomFields(r *rand.Rand) map[string]string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJ0123456789 -_.:/&=+~"
	fields := make(map[string]string)
	n := 1 + r.Intn(12)
	for i := 0; i < n; i++ {
		var sb strings.Builder
		for j := 1 + r.Intn(20); j > 0; j-- {
			sb.WriteByte(alphabet[r.Intn(len(alphabet))])
		}
		fields[fmt.Sprintf("vnp_Field%02d", i)] = sb.String()
	}
	return fields
}

func TestVerifyAcceptsOwnSignature(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		fields := randomFields(r)
		assert.True(t, Verify(fields, testSecret, Sign(fields, testSecret)), "fields=%v", fields)
	}
}

func TestVerifyDetectsSingleFieldTamper(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		fields := randomFields(r)
		hash := Sign(fields, testSecret)

		tampered := make(map[string]string, len(fields))
		for k, v := range fields {
			tampered[k] = v
		}
		name := fmt.Sprintf("vnp_Field%02d", r.Intn(len(fields)))
		tampered[name] = tampered[name] + "x"

		assert.False(t, Verify(tampered, testSecret, hash), "tampered %s", name)
	}
}

func TestVerifyDetectsAddedField(t *testing.T) {
	fields := map[string]string{"vnp_Amount": "100"}
	hash := Sign(fields, testSecret)

	fields["vnp_BankCode"] = "NCB"
	assert.False(t, Verify(fields, testSecret, hash))
}

func TestVerifyIgnoresHashFieldsAndHexCase(t *testing.T) {
	fields := map[string]string{"vnp_Amount": "100", "vnp_TxnRef": "1-2"}
	hash := Sign(fields, testSecret)

	withHash := map[string]string{
		"vnp_Amount":         "100",
		"vnp_TxnRef":         "1-2",
		"vnp_SecureHash":     hash,
		"vnp_SecureHashType": "HmacSHA512",
	}
	assert.True(t, Verify(withHash, testSecret, strings.ToUpper(hash)))
}

func TestVerifyRejectsEmptyOrWrongHash(t *testing.T) {
	fields := map[string]string{"vnp_Amount": "100"}

	assert.False(t, Verify(fields, testSecret, ""))
	assert.False(t, Verify(fields, testSecret, "deadbeef"))
	assert.False(t, Verify(fields, "wrong", Sign(fields, testSecret)))
}

func TestEncodeQuerySkipsEmpty(t *testing.T) {
	fields := map[string]string{"vnp_b": "x y", "vnp_a": "1", "vnp_c": ""}

	assert.Equal(t, "vnp_a=1&vnp_b=x+y", EncodeQuery(fields))
}

func TestSignParamsDoesNotMutateInput(t *testing.T) {
	params := map[string]string{"vnp_Amount": "100"}
	signed := SignParams(params, testSecret)

	assert.NotContains(t, params, FieldSecureHash)
	assert.Equal(t, Sign(params, testSecret), signed[FieldSecureHash])
}
