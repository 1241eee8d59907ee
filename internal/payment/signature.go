package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureParam is the reserved parameter name carrying the gateway
// signature; it is never part of the signed canonical string.
const SignatureParam = "signature"

// SignParams computes the gateway signature: parameters sorted by name,
// joined as key=value pairs with '&', HMAC-SHA256 under the shared secret,
// hex encoded. All three callback channels and the session request are signed
// over this same canonical string.
func SignParams(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == SignatureParam {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyParams checks the signature supplied in params against the canonical
// string of the remaining parameters.
func VerifyParams(secret string, params map[string]string) bool {
	provided := params[SignatureParam]
	if secret == "" || provided == "" {
		return false
	}
	expected := SignParams(secret, params)
	return hmac.Equal([]byte(provided), []byte(expected))
}
