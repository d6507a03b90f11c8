package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	secret := "whsec-test"
	body := []byte(`{"triggerEvent":"BOOKING_CREATED","payload":{"uid":"abc123"}}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, Verify(body, valid, secret))
	})

	t.Run("uppercase and prefixed signature", func(t *testing.T) {
		assert.True(t, Verify(body, "sha256="+valid, secret))
		assert.True(t, Verify(body, "  "+valid+" ", secret))
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := []byte(`{"triggerEvent":"BOOKING_CREATED","payload":{"uid":"abc999"}}`)
		assert.False(t, Verify(tampered, valid, secret))
	})

	t.Run("re-serialized body is not the same bytes", func(t *testing.T) {
		spaced := []byte(`{"triggerEvent": "BOOKING_CREATED", "payload": {"uid": "abc123"}}`)
		assert.False(t, Verify(spaced, valid, secret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify(body, valid, "other-secret"))
	})

	t.Run("missing signature", func(t *testing.T) {
		assert.False(t, Verify(body, "", secret))
	})

	t.Run("malformed and short signatures", func(t *testing.T) {
		assert.False(t, Verify(body, "not-hex-at-all", secret))
		assert.False(t, Verify(body, valid[:10], secret))
		assert.False(t, Verify(body, valid+"00", secret))
	})

	t.Run("no secret configured accepts anything", func(t *testing.T) {
		assert.True(t, Verify(body, "", ""))
		assert.True(t, Verify(body, "garbage", ""))
	})
}

func TestSignMatchesVerify(t *testing.T) {
	body := []byte(`{"type":"email.opened"}`)
	assert.True(t, Verify(body, Sign(body, "s3cret"), "s3cret"))
	assert.Len(t, Sign(body, "s3cret"), 64)
}
