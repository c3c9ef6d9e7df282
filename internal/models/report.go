package models

import (
	"slices"
	"time"
)

// SourceFile is the text of one file handed to the model
type SourceFile struct {
	Name    string `json:"name"`
	Content string `json:"-"`
}

// Report is a completed analysis kept in history
type Report struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Files     []string       `json:"files"`
	Result    AnalysisResult `json:"result"`
}

// Clone returns a deep copy; no slice is shared with r
func (r *Report) Clone() *Report {
	c := *r
	c.Files = slices.Clone(r.Files)
	c.Result.Vulnerabilities = slices.Clone(r.Result.Vulnerabilities)
	c.Result.Recommendations = slices.Clone(r.Result.Recommendations)
	return &c
}

// FindingCount returns the total number of findings in the report
func (r *Report) FindingCount() int {
	return len(r.Result.Vulnerabilities)
}

// ActivityKind classifies an entry of the activity log
type ActivityKind string

const (
	ActivityAnalysisStarted   ActivityKind = "analysis_started"
	ActivityAnalysisCompleted ActivityKind = "analysis_completed"
	ActivityAnalysisFailed    ActivityKind = "analysis_failed"
	ActivityAnalysisReset     ActivityKind = "analysis_reset"
	ActivitySettingsSaved     ActivityKind = "settings_saved"
)

// Activity is one entry of the activity log shown in the History view
type Activity struct {
	ID      string       `json:"id"`
	At      time.Time    `json:"at"`
	Kind    ActivityKind `json:"kind"`
	Message string       `json:"message"`
}
