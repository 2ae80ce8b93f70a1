package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/watchtower/domain/alert"
)

func TestRenderTemplateSubstitutesAlertFields(t *testing.T) {
	a := alert.New("large_transaction", "huge transfer", alert.SeverityHigh, "p", "Example DEX", "")

	out, err := renderTemplate("test", "{{.Severity}} on {{.ProgramName}}: {{.Message}}", a)
	require.NoError(t, err)
	assert.Equal(t, "HIGH on Example DEX: huge transfer", out)
}

func TestRenderTemplateRejectsMalformedTemplate(t *testing.T) {
	a := alert.New("r", "m", alert.SeverityLow, "p", "Program", "")
	_, err := renderTemplate("test", "{{.Unclosed", a)
	require.Error(t, err)
}

func TestDefaultEmailBodyIncludesSuggestedActions(t *testing.T) {
	a := alert.New("r", "leverage spike", alert.SeverityCritical, "p", "Program", "")
	a.SuggestedActions = []string{"pause market", "notify risk team"}

	body := defaultEmailBody(a)
	assert.Contains(t, body, "pause market")
	assert.Contains(t, body, "notify risk team")
	assert.Contains(t, body, "CRITICAL")
}
