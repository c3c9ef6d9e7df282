package app

import (
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

// State is the application state owned by the Controller
type State struct {
	View      models.View
	Status    models.AnalysisStatus
	Result    *models.AnalysisResult
	ReportID  string
	Files     []string
	Message   string
	UpdatedAt time.Time
}

// Snapshot is a read-only copy of State plus the settings the views need.
// The API key itself is never part of it.
type Snapshot struct {
	View         models.View            `json:"view"`
	Status       models.AnalysisStatus  `json:"status"`
	Busy         bool                   `json:"busy"`
	ShowResults  bool                   `json:"showResults"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	ReportID     string                 `json:"reportId,omitempty"`
	Files        []string               `json:"files,omitempty"`
	Message      string                 `json:"message,omitempty"`
	SystemPrompt string                 `json:"systemPrompt"`
	HasAPIKey    bool                   `json:"hasApiKey"`
	MaskedAPIKey string                 `json:"maskedApiKey,omitempty"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// ActiveView is the view to render: results replace the current view once an analysis completed
func (s Snapshot) ActiveView() string {
	if s.ShowResults {
		return "Results"
	}
	return string(s.View)
}
