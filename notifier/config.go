package notifier

import (
	"time"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/ratelimit"
	"github.com/chainwatch/watchtower/internal/werrors"
	"github.com/chainwatch/watchtower/notifier/channels"
)

// FilterRule narrows which alerts reach which channels. An alert matches a
// rule when its rule name, program name, and severity all match a
// configured list (an empty list matches everything on that dimension). A
// matching Include rule restricts delivery to Channels; a matching exclude
// rule (Include == false) removes Channels from delivery.
type FilterRule struct {
	RuleNames    []string
	ProgramNames []string
	Severities   []alert.Severity
	Channels     []string
	Include      bool
}

// RateLimitConfig is the notifier-wide quota. Every enabled channel gets its
// own bucket built from it; channels have no quota of their own.
type RateLimitConfig struct {
	Enabled              bool
	MaxMessagesPerMinute int
	BurstSize            int
}

func (c RateLimitConfig) toRatelimit() ratelimit.Config {
	if !c.Enabled {
		return ratelimit.Config{}
	}
	return ratelimit.Config{MaxMessagesPerMinute: c.MaxMessagesPerMinute, BurstSize: c.BurstSize}
}

// Config is the full notifier configuration: channel credentials, global
// delivery policy, and batching behavior.
type Config struct {
	Email    channels.EmailConfig
	Telegram channels.TelegramConfig
	Slack    channels.SlackConfig
	Discord  channels.DiscordConfig

	MinSeverity alert.Severity
	Filters     []FilterRule

	EnableBatching bool
	BatchSize      int
	BatchTimeout   time.Duration

	RateLimit RateLimitConfig
}

// DefaultConfig returns a notifier configuration with every channel
// disabled, no severity floor, and a permissive shared rate limit. Callers
// enable and populate the channels they intend to use.
func DefaultConfig() Config {
	return Config{
		MinSeverity:    alert.SeverityInfo,
		EnableBatching: false,
		BatchSize:      10,
		BatchTimeout:   30 * time.Second,
		RateLimit:      RateLimitConfig{Enabled: true, MaxMessagesPerMinute: 30, BurstSize: 5},
	}
}

// Validate reports a configuration error when batching is enabled with a
// nonsensical size or timeout, or when an enabled channel is missing
// required credentials.
func (c Config) Validate() error {
	if c.EnableBatching && c.BatchSize <= 0 {
		return werrors.InvalidConfig("batch_size must be positive when batching is enabled")
	}
	if c.EnableBatching && c.BatchTimeout <= 0 {
		return werrors.InvalidConfig("batch_timeout must be positive when batching is enabled")
	}
	if c.Email.Enabled && (c.Email.SMTPServer == "" || c.Email.FromAddress == "" || len(c.Email.ToAddresses) == 0) {
		return werrors.InvalidConfig("email channel requires smtp_server, from_address, and at least one to_address")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return werrors.InvalidConfig("telegram channel requires bot_token and chat_id")
	}
	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return werrors.InvalidConfig("slack channel requires webhook_url")
	}
	if c.Discord.Enabled && c.Discord.WebhookURL == "" {
		return werrors.InvalidConfig("discord channel requires webhook_url")
	}
	return nil
}
