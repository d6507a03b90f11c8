package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verify checks signature against the HMAC-SHA256 of the exact body bytes.
// An empty secret disables verification. The signature is hex, optionally
// prefixed with "sha256=". Any mismatch, including length, is false.
func Verify(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	sig := strings.ToLower(strings.TrimSpace(signature))
	sig = strings.TrimPrefix(sig, "sha256=")
	return hmac.Equal([]byte(sig), []byte(Sign(body, secret)))
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
