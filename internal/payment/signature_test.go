package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	params := map[string]string{
		"orderId":    "a2f1e5a0-7d47-4f6e-9d3e-000000000001",
		"resultCode": "0",
		"amount":     "150000",
		"transId":    "TXN-42",
	}

	params[SignatureParam] = SignParams("secret", params)
	assert.True(t, VerifyParams("secret", params))
}

func TestVerifyRejectsTamperedParams(t *testing.T) {
	params := map[string]string{
		"orderId":    "a2f1e5a0-7d47-4f6e-9d3e-000000000001",
		"resultCode": "0",
		"amount":     "150000",
	}
	params[SignatureParam] = SignParams("secret", params)

	params["amount"] = "1"
	assert.False(t, VerifyParams("secret", params))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	params := map[string]string{"orderId": "x", "resultCode": "0"}
	params[SignatureParam] = SignParams("secret", params)

	assert.False(t, VerifyParams("other-secret", params))
}

func TestVerifyRejectsMissingSignatureOrSecret(t *testing.T) {
	params := map[string]string{"orderId": "x"}
	assert.False(t, VerifyParams("secret", params))

	params[SignatureParam] = SignParams("secret", params)
	assert.False(t, VerifyParams("", params))
}

func TestSignIgnoresSignatureParamAndKeyOrder(t *testing.T) {
	base := map[string]string{"b": "2", "a": "1", "c": "3"}
	withSig := map[string]string{"c": "3", "a": "1", "b": "2", SignatureParam: "junk"}

	assert.Equal(t, SignParams("secret", base), SignParams("secret", withSig))
}
