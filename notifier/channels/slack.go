package channels

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainwatch/watchtower/domain/alert"
)

// SlackChannel posts alerts to a Slack incoming webhook.
type SlackChannel struct {
	config SlackConfig
	client *http.Client
}

func NewSlackChannel(cfg SlackConfig) *SlackChannel {
	return &SlackChannel{config: cfg, client: &http.Client{Timeout: defaultHTTPTimeout}}
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Send(ctx context.Context, a *alert.Alert) error {
	text := c.config.MessageTemplate
	var err error
	if text != "" {
		text, err = renderTemplate("slack", text, a)
		if err != nil {
			return err
		}
	} else {
		text = defaultSlackMessage(a)
	}

	severity := strings.ToUpper(a.Severity.String())
	payload := map[string]interface{}{"text": text}
	if c.config.Channel != "" {
		payload["channel"] = c.config.Channel
	}
	if c.config.Username != "" {
		payload["username"] = c.config.Username
	}
	if c.config.Icon != "" {
		if strings.HasPrefix(c.config.Icon, ":") && strings.HasSuffix(c.config.Icon, ":") {
			payload["icon_emoji"] = c.config.Icon
		} else {
			payload["icon_url"] = c.config.Icon
		}
	}
	payload["attachments"] = []map[string]interface{}{
		{
			"color": severityColorHex(severity),
			"fields": []map[string]interface{}{
				{"title": "Program", "value": a.ProgramName, "short": true},
				{"title": "Severity", "value": strings.ToLower(severity), "short": true},
				{"title": "Confidence", "value": fmt.Sprintf("%.1f%%", a.Confidence*100), "short": true},
			},
			"ts": a.Timestamp.Unix(),
		},
	}

	return postJSON(ctx, c.client, "slack", c.config.WebhookURL, payload)
}

func (c *SlackChannel) Test(ctx context.Context) error {
	return c.Send(ctx, testAlert())
}

func (c *SlackChannel) SupportsBatching() bool { return false }

func (c *SlackChannel) SendBatch(ctx context.Context, alerts []*alert.Alert) error {
	return fmt.Errorf("slack channel does not support batching")
}
