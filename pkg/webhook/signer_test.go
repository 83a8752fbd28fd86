package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ikanisa/momo-relay/pkg/webhook"
)

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"sender":"MTN MoMo","message":"hi","timestamp":1700000000000,"deviceId":"d1"}`)

	sig := webhook.Sign("secret", payload)
	assert.Equal(t, webhook.Sign("secret", payload), sig)
	assert.Contains(t, sig, "sha256=")

	assert.NotEqual(t, sig, webhook.Sign("other-secret", payload))
	assert.NotEqual(t, sig, webhook.Sign("secret", []byte("tampered")))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"a":1}`)
	sig := webhook.Sign("s3cret", payload)

	assert.True(t, webhook.VerifySignature("s3cret", payload, sig))
	assert.False(t, webhook.VerifySignature("s3cret", []byte(`{"a":2}`), sig))
	assert.False(t, webhook.VerifySignature("wrong", payload, sig))
}
