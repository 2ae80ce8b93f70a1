package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/werrors"
)

// TelegramChannel posts alerts to a chat through the Telegram bot API.
type TelegramChannel struct {
	config TelegramConfig
	client *http.Client
}

func NewTelegramChannel(cfg TelegramConfig) *TelegramChannel {
	return &TelegramChannel{config: cfg, client: &http.Client{Timeout: defaultHTTPTimeout}}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(ctx context.Context, a *alert.Alert) error {
	text := c.config.MessageTemplate
	var err error
	if text != "" {
		text, err = renderTemplate("telegram", text, a)
		if err != nil {
			return err
		}
	} else {
		text = defaultTelegramMessage(a)
	}

	payload := map[string]interface{}{
		"chat_id":                  c.config.ChatID,
		"text":                     text,
		"disable_web_page_preview": c.config.DisableWebPagePreview,
		"disable_notification":     c.config.DisableNotification,
	}
	if c.config.ParseMode != "" {
		payload["parse_mode"] = c.config.ParseMode
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.config.BotToken)
	return postJSON(ctx, c.client, "telegram", url, payload)
}

func (c *TelegramChannel) Test(ctx context.Context) error {
	return c.Send(ctx, testAlert())
}

func (c *TelegramChannel) SupportsBatching() bool { return false }

func (c *TelegramChannel) SendBatch(ctx context.Context, alerts []*alert.Alert) error {
	return fmt.Errorf("telegram channel does not support batching")
}

// postJSON marshals payload and posts it, returning a TransportFailure for
// any network error or non-2xx response.
func postJSON(ctx context.Context, client *http.Client, channel, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return werrors.TransportFailure(channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return werrors.TransportFailure(channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return werrors.TransportFailure(channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return werrors.TransportFailure(channel, fmt.Errorf("%s returned %d: %s", channel, resp.StatusCode, respBody))
	}
	return nil
}
