package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op when dsn is empty.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// scrubEvent drops bearer tokens, cookies and request bodies before an
// event leaves the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}

	for name := range event.Request.Headers {
		switch http.CanonicalHeaderKey(name) {
		case "Authorization", "Cookie":
			delete(event.Request.Headers, name)
		}
	}
	event.Request.Data = ""
	event.Request.Cookies = ""

	return event
}
