package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		invalidKey bool
	}{
		{"gemini invalid key", errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"), true},
		{"gemini reason", errors.New("googleai: [{reason: API_KEY_INVALID}]"), true},
		{"openai incorrect key", errors.New("POST /chat/completions: 401 Unauthorized: Incorrect API key provided"), true},
		{"wrapped", fmt.Errorf("generate: %w", errors.New("api key not valid")), true},
		{"quota", errors.New("Error 429, Message: Resource has been exhausted"), false},
		{"network", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err)
			assert.Equal(t, tt.invalidKey, errors.Is(err, ErrInvalidAPIKey))
			assert.Equal(t, !tt.invalidKey, errors.Is(err, ErrAnalysisFailed))
			assert.Contains(t, err.Error(), tt.err.Error(), "original text should be kept for logs")
		})
	}
}

func TestTranslateError_KeepsSentinels(t *testing.T) {
	assert.Nil(t, translateError(nil))

	err := malformed("bad")
	assert.Same(t, err, translateError(err))
}
