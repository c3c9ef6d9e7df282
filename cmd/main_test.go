package main

import (
	"bytes"
	"testing"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/BetterCallFirewall/Sentinel/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIKey(t *testing.T) {
	store := storage.NewMemoryStorage()

	key, err := resolveAPIKey("", store, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	require.NoError(t, store.SetSetting(storage.KeyAPIKey, "stored"))
	key, err = resolveAPIKey("", store, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "stored", key)

	key, err = resolveAPIKey("flag", store, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "flag", key)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, []models.SourceFile{{Name: "a.js"}, {Name: "b.js"}}, &models.AnalysisResult{
		Summary: models.Summary{High: 1, SecurityScore: 7, AISummary: "Uma falha."},
		Vulnerabilities: []models.Vulnerability{
			{ID: "v1", Severity: models.SeverityHigh, Location: "a.js:3", Description: "XSS", CVE: "CVE-2020-1", Remediation: "Escape"},
		},
		Recommendations: []string{"Use CSP"},
	})

	out := buf.String()
	assert.Contains(t, out, "Arquivos: a.js, b.js")
	assert.Contains(t, out, "Nota de segurança: 7.0/10")
	assert.Contains(t, out, "[High] a.js:3")
	assert.Contains(t, out, "CVE: CVE-2020-1")
	assert.Contains(t, out, "  - Use CSP")
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "analyze", "validate-key"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
