package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/watchtower/domain/alert"
)

func TestSlackChannelSendPostsAttachmentWithSeverityColor(t *testing.T) {
	var captured map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: srv.URL, Username: "watchtower"})
	a := alert.New("large_transaction", "transfer exceeded threshold", alert.SeverityCritical, "prog1", "Example DEX", "")

	err := ch.Send(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, "watchtower", captured["username"])
	attachments := captured["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]interface{})
	assert.Equal(t, "#ff0000", att["color"])
}

func TestSlackChannelSendReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewSlackChannel(SlackConfig{Enabled: true, WebhookURL: srv.URL})
	err := ch.Send(context.Background(), alert.New("r", "m", alert.SeverityLow, "p", "Program", ""))
	require.Error(t, err)
}
