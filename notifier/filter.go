package notifier

import (
	"github.com/chainwatch/watchtower/domain/alert"
)

// resolveChannels applies the severity floor and filter chain to alert a,
// returning the set of configured channel names it should be delivered to.
// An alert below MinSeverity reaches nothing. Otherwise delivery starts at
// every enabled channel and each matching filter rule narrows (Include) or
// removes (exclude) channels in configuration order.
func (c Config) resolveChannels(a *alert.Alert) []string {
	if !a.Severity.AtLeast(c.MinSeverity) {
		return nil
	}

	channels := c.enabledChannelNames()
	for _, rule := range c.Filters {
		if !ruleMatches(rule, a) {
			continue
		}
		if rule.Include {
			if len(rule.Channels) > 0 {
				channels = intersect(channels, rule.Channels)
			}
		} else {
			if len(rule.Channels) > 0 {
				channels = subtract(channels, rule.Channels)
			} else {
				channels = nil
			}
		}
	}
	return channels
}

func (c Config) enabledChannelNames() []string {
	var names []string
	if c.Email.Enabled {
		names = append(names, "email")
	}
	if c.Telegram.Enabled {
		names = append(names, "telegram")
	}
	if c.Slack.Enabled {
		names = append(names, "slack")
	}
	if c.Discord.Enabled {
		names = append(names, "discord")
	}
	return names
}

func ruleMatches(rule FilterRule, a *alert.Alert) bool {
	if len(rule.RuleNames) > 0 && !contains(rule.RuleNames, a.RuleName) {
		return false
	}
	if len(rule.ProgramNames) > 0 && !contains(rule.ProgramNames, a.ProgramName) {
		return false
	}
	if len(rule.Severities) > 0 && !containsSeverity(rule.Severities, a.Severity) {
		return false
	}
	return true
}

func containsSeverity(list []alert.Severity, v alert.Severity) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intersect(a, b []string) []string {
	var out []string
	for _, v := range a {
		if contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func subtract(a, b []string) []string {
	var out []string
	for _, v := range a {
		if !contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
