package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	log "github.com/sirupsen/logrus"
)

// ParseAnalysisResult turns model text into a typed, normalized result.
// Markdown fences are stripped, required properties are checked against
// AnalysisSchema, unknown properties are ignored.
func ParseAnalysisResult(text string) (*models.AnalysisResult, error) {
	content := cleanJSONResponse(text)
	if content == "" {
		return nil, malformed("empty response")
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		log.Warnf("❌ JSON parse error: %v (content: %s)", err, TruncateString(content, 500))
		return nil, malformed("invalid JSON: %v", err)
	}

	if missing := missingProperties("", AnalysisSchema(), raw); len(missing) > 0 {
		log.Warnf("⚠️ JSON valid, but required properties are missing: %v", missing)
		return nil, malformed("missing properties: %s", strings.Join(missing, ", "))
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, malformed("unexpected types: %v", err)
	}

	result.Normalize()
	return &result, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrAnalysisFailed, ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// cleanJSONResponse strips markdown fences and surrounding chatter
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start >= 0 && end > start {
		return content[start : end+1]
	}

	return content
}

// TruncateString truncates a string to maxLen with "..." suffix if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
