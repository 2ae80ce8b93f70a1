package notifier

import (
	"context"

	"github.com/chainwatch/watchtower/domain/alert"
)

// Channel is one outbound transport a notifier dispatches alerts through.
type Channel interface {
	// Name identifies the channel in statistics and log output.
	Name() string

	// Send delivers a single alert.
	Send(ctx context.Context, a *alert.Alert) error

	// Test sends a synthetic alert to verify the channel is reachable and
	// correctly configured.
	Test(ctx context.Context) error

	// SupportsBatching reports whether SendBatch is implemented.
	SupportsBatching() bool

	// SendBatch delivers several alerts as one message. Channels that do
	// not support batching return an error; callers should check
	// SupportsBatching first.
	SendBatch(ctx context.Context, alerts []*alert.Alert) error
}

func testAlert() *alert.Alert {
	a := alert.New("test_rule", "This is a test alert", alert.SeverityInfo, "", "Test Program", "")
	a.Confidence = 1.0
	a.SuggestedActions = []string{"This is a test"}
	return a
}
