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

func TestDiscordChannelSendOmitsEmbedsWhenDisabled(t *testing.T) {
	var captured map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewDiscordChannel(DiscordConfig{Enabled: true, WebhookURL: srv.URL, UseEmbeds: false})
	err := ch.Send(context.Background(), alert.New("r", "m", alert.SeverityHigh, "p", "Program", ""))
	require.NoError(t, err)

	_, hasEmbeds := captured["embeds"]
	assert.False(t, hasEmbeds)
}

func TestDiscordChannelSendIncludesEmbedWithDecimalColor(t *testing.T) {
	var captured map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewDiscordChannel(DiscordConfig{Enabled: true, WebhookURL: srv.URL, UseEmbeds: true})
	err := ch.Send(context.Background(), alert.New("r", "m", alert.SeverityHigh, "p", "Program", ""))
	require.NoError(t, err)

	embeds := captured["embeds"].([]interface{})
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]interface{})
	assert.Equal(t, float64(0xff8c00), embed["color"])
}
