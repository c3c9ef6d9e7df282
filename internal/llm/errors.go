package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAPIKey means the provider rejected the credential
	ErrInvalidAPIKey = errors.New("api key rejected by the model provider")

	// ErrAnalysisFailed covers every other failure of a model call
	ErrAnalysisFailed = errors.New("could not obtain analysis from the model")

	// ErrMalformedResponse means the model answered with text that does not match the schema.
	// It is always wrapped together with ErrAnalysisFailed.
	ErrMalformedResponse = errors.New("model response does not match the analysis schema")
)

// invalidKeyMarkers are substrings providers use when refusing a credential
var invalidKeyMarkers = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
	"incorrect api key",
	"invalid_api_key",
	"401 unauthorized",
	"status: unauthenticated",
}

// isInvalidKeyError reports whether err looks like a rejected credential
func isInvalidKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range invalidKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// translateError collapses a provider error into ErrInvalidAPIKey or ErrAnalysisFailed,
// keeping the original text for logs
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrAnalysisFailed) {
		return err
	}
	if isInvalidKeyError(err) {
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	return fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
}
