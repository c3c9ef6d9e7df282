package models

import "strings"

// Settings is the user-owned configuration of the dashboard
type Settings struct {
	SystemPrompt string `json:"systemPrompt"`
	APIKey       string `json:"-"`
}

// HasAPIKey reports whether a credential is stored
func (s Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// MaskedAPIKey returns the credential with everything but the last four characters hidden
func (s Settings) MaskedAPIKey() string {
	key := strings.TrimSpace(s.APIKey)
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("•", len(key))
	}
	return strings.Repeat("•", 8) + key[len(key)-4:]
}
