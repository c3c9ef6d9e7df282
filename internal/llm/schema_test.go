package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisSchema_Required(t *testing.T) {
	schema := AnalysisSchema()
	require.NotNil(t, schema)
	assert.ElementsMatch(t, []string{"summary", "vulnerabilities", "recommendations"}, schema.Required)

	summary, ok := schema.Properties.Get("summary")
	require.True(t, ok)
	assert.Contains(t, summary.Required, "aiSummary")
	assert.Contains(t, summary.Required, "securityScore")

	vulns, ok := schema.Properties.Get("vulnerabilities")
	require.True(t, ok)
	require.NotNil(t, vulns.Items)
	assert.ElementsMatch(t, []string{"severity", "location", "description", "remediation"}, vulns.Items.Required)

	severity, ok := vulns.Items.Properties.Get("severity")
	require.True(t, ok)
	assert.Equal(t, "Exactly one of Critical / High / Medium / Low (English values)", severity.Description)
	assert.Empty(t, severity.Enum, "unknown severities are coerced after decoding, not rejected")
	assert.Equal(t, "Counts per severity with the overall score and summary", summary.Description)
}

func TestMissingProperties_NullObject(t *testing.T) {
	raw := map[string]any{
		"summary":         nil,
		"vulnerabilities": []any{},
		"recommendations": []any{},
	}
	assert.Equal(t, []string{"summary"}, missingProperties("", AnalysisSchema(), raw))
}
