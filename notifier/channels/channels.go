// Package channels implements the outbound transports a notifier can
// dispatch alerts through: SMTP email, a Telegram bot, and Slack/Discord
// incoming webhooks.
package channels

import (
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
)

const defaultHTTPTimeout = 10 * time.Second

// testAlert builds the synthetic alert each channel's Test method sends to
// verify connectivity and configuration.
func testAlert() *alert.Alert {
	a := alert.New("test_rule", "This is a test alert", alert.SeverityInfo, "", "Test Program", "")
	a.Confidence = 1.0
	a.SuggestedActions = []string{"This is a test"}
	return a
}

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Enabled         bool
	SMTPServer      string
	SMTPPort        int
	Username        string
	Password        string
	UseTLS          bool
	FromAddress     string
	FromName        string
	ToAddresses     []string
	SubjectTemplate string
	BodyTemplate    string
}

// TelegramConfig configures the Telegram bot channel.
type TelegramConfig struct {
	Enabled               bool
	BotToken              string
	ChatID                string
	ParseMode             string
	DisableWebPagePreview bool
	DisableNotification   bool
	MessageTemplate       string
}

// SlackConfig configures the Slack incoming-webhook channel.
type SlackConfig struct {
	Enabled         bool
	WebhookURL      string
	Channel         string
	Username        string
	Icon            string
	MessageTemplate string
}

// DiscordConfig configures the Discord incoming-webhook channel.
type DiscordConfig struct {
	Enabled         bool
	WebhookURL      string
	Username        string
	AvatarURL       string
	UseEmbeds       bool
	MessageTemplate string
}

// severityColorHex maps a severity name to the hex color Slack attachments
// expect.
func severityColorHex(severity string) string {
	switch severity {
	case "CRITICAL":
		return "#ff0000"
	case "HIGH":
		return "#ff8c00"
	case "MEDIUM":
		return "#ffd700"
	case "LOW":
		return "#32cd32"
	default:
		return "#87ceeb"
	}
}

// severityColorDecimal maps a severity name to the decimal color Discord
// embeds expect.
func severityColorDecimal(severity string) int {
	switch severity {
	case "CRITICAL":
		return 0xff0000
	case "HIGH":
		return 0xff8c00
	case "MEDIUM":
		return 0xffd700
	case "LOW":
		return 0x32cd32
	default:
		return 0x87ceeb
	}
}
