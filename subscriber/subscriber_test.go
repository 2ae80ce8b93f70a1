package subscriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/watchtower/domain/event"
)

const testProgramID = "11111111111111111111111111111111"

var testUpgrader = websocket.Upgrader{}

// newReconnectServer accepts connections and, for the first
// notifyOnConnections connections, delivers one logsNotification mentioning
// testProgramID before closing; later connections close immediately. This
// drives the subscriber through repeated connect, receive one notification,
// remote close, reconnect cycles.
func newReconnectServer(t *testing.T, notifyOnConnections int32) (*httptest.Server, *int32) {
	t.Helper()
	var connections int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := atomic.AddInt32(&connections, 1)

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if n <= notifyOnConnections {
			time.Sleep(15 * time.Millisecond)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{
				"method": "logsNotification",
				"params": {
					"result": {
						"context": {"slot": 1},
						"value": {"signature": "sig", "err": null, "logs": ["Program `+testProgramID+` invoke [1]"]}
					}
				}
			}`))
			time.Sleep(15 * time.Millisecond)
		}
	}))
	return srv, &connections
}

func TestSubscriberReconnectsAndStopsAfterMaxAttempts(t *testing.T) {
	srv, connections := newReconnectServer(t, 2)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	cfg := Config{
		WSURL:                wsURL,
		Timeout:              time.Second,
		MaxReconnectAttempts: 2,
		ReconnectDelay:       10 * time.Millisecond,
		Programs: []ProgramConfig{
			{ID: testProgramID, Name: "Example DEX", MonitorLogs: true},
		},
		Filters: Filters{IncludeFailed: true, IncludeVotes: true, Commitment: "confirmed"},
	}

	sub, err := New(cfg, nil)
	require.NoError(t, err)

	recv := sub.SubscribeToEvents()
	defer sub.UnsubscribeFromEvents(recv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sub.Start(ctx)

	var received []*event.ProgramEvent
	deadline := time.After(1500 * time.Millisecond)
collect:
	for {
		select {
		case evt := <-recv:
			received = append(received, evt)
		case <-deadline:
			break collect
		}
	}

	assert.Len(t, received, 2)
	assert.Equal(t, StateStopped, sub.State())
	assert.GreaterOrEqual(t, atomic.LoadInt32(connections), int32(3))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
