package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/notifier/channels"
)

func allChannelsConfig() Config {
	cfg := DefaultConfig()
	cfg.Email = channels.EmailConfig{Enabled: true, SMTPServer: "smtp", FromAddress: "a@b.com", ToAddresses: []string{"c@d.com"}}
	cfg.Telegram = channels.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "1"}
	cfg.Slack = channels.SlackConfig{Enabled: true, WebhookURL: "https://hooks.slack.test/x"}
	cfg.Discord = channels.DiscordConfig{Enabled: true, WebhookURL: "https://discord.test/x"}
	return cfg
}

func TestResolveChannelsBelowMinSeverityGetsNothing(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.MinSeverity = alert.SeverityHigh

	a := alert.New("r", "m", alert.SeverityMedium, "p", "Program", "")
	assert.Empty(t, cfg.resolveChannels(a))
}

func TestResolveChannelsAtOrAboveMinSeverityGetsAllEnabled(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.MinSeverity = alert.SeverityHigh

	a := alert.New("r", "m", alert.SeverityCritical, "p", "Program", "")
	assert.ElementsMatch(t, []string{"email", "telegram", "slack", "discord"}, cfg.resolveChannels(a))
}

func TestResolveChannelsIncludeRuleNarrowsToListedChannels(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{RuleNames: []string{"oracle_deviation"}, Channels: []string{"slack"}, Include: true},
	}

	a := alert.New("oracle_deviation", "m", alert.SeverityMedium, "p", "Program", "")
	assert.Equal(t, []string{"slack"}, cfg.resolveChannels(a))
}

func TestResolveChannelsExcludeRuleRemovesListedChannels(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{ProgramNames: []string{"Noisy Program"}, Channels: []string{"email"}, Include: false},
	}

	a := alert.New("r", "m", alert.SeverityMedium, "p", "Noisy Program", "")
	assert.ElementsMatch(t, []string{"telegram", "slack", "discord"}, cfg.resolveChannels(a))
}

func TestResolveChannelsNonMatchingRuleLeavesDeliveryUntouched(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{RuleNames: []string{"some_other_rule"}, Channels: []string{"slack"}, Include: true},
	}

	a := alert.New("r", "m", alert.SeverityMedium, "p", "Program", "")
	assert.ElementsMatch(t, []string{"email", "telegram", "slack", "discord"}, cfg.resolveChannels(a))
}

func TestResolveChannelsIncludeRuleWithNoChannelsLeavesEligibleSetUnchanged(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{RuleNames: []string{"oracle_deviation"}, Include: true},
	}

	a := alert.New("oracle_deviation", "m", alert.SeverityMedium, "p", "Program", "")
	assert.ElementsMatch(t, []string{"email", "telegram", "slack", "discord"}, cfg.resolveChannels(a))
}

func TestResolveChannelsExcludeRuleWithNoChannelsClearsEligibleSet(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{Severities: []alert.Severity{alert.SeverityInfo}, Include: false},
	}

	a := alert.New("r", "m", alert.SeverityInfo, "p", "Program", "")
	assert.Empty(t, cfg.resolveChannels(a))
}

func TestResolveChannelsSeverityListOnlyMatchesListedSeverities(t *testing.T) {
	cfg := allChannelsConfig()
	cfg.Filters = []FilterRule{
		{Severities: []alert.Severity{alert.SeverityCritical}, Channels: []string{"slack"}, Include: true},
	}

	critical := alert.New("r", "m", alert.SeverityCritical, "p", "Program", "")
	assert.Equal(t, []string{"slack"}, cfg.resolveChannels(critical))

	high := alert.New("r", "m", alert.SeverityHigh, "p", "Program", "")
	assert.ElementsMatch(t, []string{"email", "telegram", "slack", "discord"}, cfg.resolveChannels(high))
}
