package observability

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer secret-token",
				"cookie":        "session=1",
				"User-Agent":    "curl",
			},
			Data:    `{"password":"pw1"}`,
			Cookies: "session=1",
		},
	}

	got := scrubEvent(event, nil)

	assert.Equal(t, map[string]string{"User-Agent": "curl"}, got.Request.Headers)
	assert.Empty(t, got.Request.Data)
	assert.Empty(t, got.Request.Cookies)
	assert.Nil(t, scrubEvent(nil, nil))
}

func TestInitSentry_EmptyDSNIsNoop(t *testing.T) {
	assert.NoError(t, InitSentry("", "test"))
}
