package channels

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/werrors"
)

// renderTemplate runs a user-supplied text template against alert fields.
// Telegram, Slack, and Discord messages go through this; email bodies use
// renderHTMLTemplate since they're served as text/html.
func renderTemplate(channel, tmpl string, a *alert.Alert) (string, error) {
	t, err := texttemplate.New(channel).Parse(tmpl)
	if err != nil {
		return "", werrors.TemplateRenderFailure(channel, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, templateData(a)); err != nil {
		return "", werrors.TemplateRenderFailure(channel, err)
	}
	return buf.String(), nil
}

func renderHTMLTemplate(channel, tmpl string, a *alert.Alert) (string, error) {
	t, err := htmltemplate.New(channel).Parse(tmpl)
	if err != nil {
		return "", werrors.TemplateRenderFailure(channel, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, templateData(a)); err != nil {
		return "", werrors.TemplateRenderFailure(channel, err)
	}
	return buf.String(), nil
}

// templateData flattens an Alert into the fields a user-supplied template
// can reference: {{.RuleName}}, {{.Severity}}, {{.Message}}, and so on.
func templateData(a *alert.Alert) map[string]interface{} {
	return map[string]interface{}{
		"ID":               a.ID,
		"RuleName":         a.RuleName,
		"Message":          a.Message,
		"Severity":         strings.ToUpper(a.Severity.String()),
		"ProgramID":        a.ProgramID,
		"ProgramName":      a.ProgramName,
		"Confidence":       fmt.Sprintf("%.1f", a.Confidence*100),
		"SuggestedActions": a.SuggestedActions,
		"Timestamp":        a.Timestamp,
	}
}

func defaultEmailBody(a *alert.Alert) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<h2>%s Alert: %s</h2>", strings.ToUpper(a.Severity.String()), htmltemplate.HTMLEscapeString(a.RuleName))
	fmt.Fprintf(&buf, "<p>%s</p>", htmltemplate.HTMLEscapeString(a.Message))
	fmt.Fprintf(&buf, "<ul><li>Program: %s</li><li>Confidence: %.1f%%</li><li>Time: %s</li></ul>",
		htmltemplate.HTMLEscapeString(a.ProgramName), a.Confidence*100, a.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if len(a.SuggestedActions) > 0 {
		buf.WriteString("<p>Suggested actions:</p><ul>")
		for _, action := range a.SuggestedActions {
			fmt.Fprintf(&buf, "<li>%s</li>", htmltemplate.HTMLEscapeString(action))
		}
		buf.WriteString("</ul>")
	}
	return buf.String()
}

func defaultBatchEmailBody(alerts []*alert.Alert) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<h2>%d Alerts</h2><ul>", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&buf, "<li>[%s] %s: %s</li>", strings.ToUpper(a.Severity.String()),
			htmltemplate.HTMLEscapeString(a.RuleName), htmltemplate.HTMLEscapeString(a.Message))
	}
	buf.WriteString("</ul>")
	return buf.String()
}

func defaultTelegramMessage(a *alert.Alert) string {
	return fmt.Sprintf("*%s Alert*\n%s\n\nProgram: %s\nConfidence: %.1f%%",
		strings.ToUpper(a.Severity.String()), a.Message, a.ProgramName, a.Confidence*100)
}

func defaultSlackMessage(a *alert.Alert) string {
	return fmt.Sprintf("*%s Alert*: %s", strings.ToUpper(a.Severity.String()), a.Message)
}

func defaultDiscordMessage(a *alert.Alert) string {
	return fmt.Sprintf("**%s Alert**: %s", strings.ToUpper(a.Severity.String()), a.Message)
}
