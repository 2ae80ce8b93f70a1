package channels

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainwatch/watchtower/domain/alert"
)

// DiscordChannel posts alerts to a Discord incoming webhook.
type DiscordChannel struct {
	config DiscordConfig
	client *http.Client
}

func NewDiscordChannel(cfg DiscordConfig) *DiscordChannel {
	return &DiscordChannel{config: cfg, client: &http.Client{Timeout: defaultHTTPTimeout}}
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Send(ctx context.Context, a *alert.Alert) error {
	content := c.config.MessageTemplate
	var err error
	if content != "" {
		content, err = renderTemplate("discord", content, a)
		if err != nil {
			return err
		}
	} else {
		content = defaultDiscordMessage(a)
	}

	payload := map[string]interface{}{"content": content}
	if c.config.Username != "" {
		payload["username"] = c.config.Username
	}
	if c.config.AvatarURL != "" {
		payload["avatar_url"] = c.config.AvatarURL
	}

	if c.config.UseEmbeds {
		severity := strings.ToUpper(a.Severity.String())
		payload["embeds"] = []map[string]interface{}{
			{
				"title":       fmt.Sprintf("%s Alert", severity),
				"description": a.Message,
				"color":       severityColorDecimal(severity),
				"fields": []map[string]interface{}{
					{"name": "Rule", "value": a.RuleName, "inline": true},
					{"name": "Program", "value": a.ProgramName, "inline": true},
					{"name": "Confidence", "value": fmt.Sprintf("%.1f%%", a.Confidence*100), "inline": true},
				},
				"timestamp": a.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			},
		}
	}

	return postJSON(ctx, c.client, "discord", c.config.WebhookURL, payload)
}

func (c *DiscordChannel) Test(ctx context.Context) error {
	return c.Send(ctx, testAlert())
}

func (c *DiscordChannel) SupportsBatching() bool { return false }

func (c *DiscordChannel) SendBatch(ctx context.Context, alerts []*alert.Alert) error {
	return fmt.Errorf("discord channel does not support batching")
}
