package models

import (
	"fmt"
	"math"
	"strings"
)

// Severity is the model-assigned severity of a finding
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Severities lists every severity from most to least severe
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is one of the four known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Weight returns a numeric weight for sorting (higher = more severe)
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity maps a raw model value onto a known severity.
// Matching is case-insensitive and accepts the Portuguese labels; anything unrecognised becomes Medium.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "crítica", "critica":
		return SeverityCritical
	case "high", "alta":
		return SeverityHigh
	case "medium", "média", "media":
		return SeverityMedium
	case "low", "baixa":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// MaxSecurityScore is the upper bound of Summary.SecurityScore
const MaxSecurityScore = 10

// Vulnerability is a single finding returned by the model
type Vulnerability struct {
	ID          string   `json:"id,omitempty" jsonschema:"description=Unique identifier of the finding within this result (e.g. vuln-1)"`
	Severity    Severity `json:"severity" jsonschema:"description=Exactly one of Critical / High / Medium / Low (English values)"`
	Location    string   `json:"location" jsonschema:"description=File and line where the issue was found (e.g. auth/login.js:42)"`
	Description string   `json:"description" jsonschema:"description=Short description of the vulnerability"`
	CVE         string   `json:"cve,omitempty" jsonschema:"description=Related CVE identifier if one applies"`
	Remediation string   `json:"remediation" jsonschema:"description=Concrete remediation advice"`
}

// Summary aggregates a result
type Summary struct {
	Critical      int     `json:"critical" jsonschema:"description=Number of Critical findings"`
	High          int     `json:"high" jsonschema:"description=Number of High findings"`
	Medium        int     `json:"medium" jsonschema:"description=Number of Medium findings"`
	Low           int     `json:"low" jsonschema:"description=Number of Low findings"`
	SecurityScore float64 `json:"securityScore" jsonschema:"minimum=0,maximum=10,description=Overall security score from 0 (insecure) to 10 (secure)"`
	AISummary     string  `json:"aiSummary" jsonschema:"description=Free-text summary of the security posture"`
}

// AnalysisResult is the structured report produced by one model call.
// It is created wholesale and never partially updated.
type AnalysisResult struct {
	Summary         Summary         `json:"summary" jsonschema:"description=Counts per severity with the overall score and summary"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities" jsonschema:"description=Findings ordered as reported"`
	Recommendations []string        `json:"recommendations" jsonschema:"description=General recommendations for the project"`
}

// Count returns the number of findings with the given severity
func (r *AnalysisResult) Count(s Severity) int {
	n := 0
	for _, v := range r.Vulnerabilities {
		if v.Severity == s {
			n++
		}
	}
	return n
}

// Normalize coerces a freshly decoded result into the invariants the views rely on:
// known severities only, unique non-empty ids, summary counts matching the list,
// a score within [0, MaxSecurityScore] and non-nil slices.
func (r *AnalysisResult) Normalize() {
	if r.Vulnerabilities == nil {
		r.Vulnerabilities = []Vulnerability{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}

	seen := make(map[string]bool, len(r.Vulnerabilities))
	for i := range r.Vulnerabilities {
		v := &r.Vulnerabilities[i]
		v.Severity = ParseSeverity(string(v.Severity))
		v.CVE = strings.TrimSpace(v.CVE)
		v.ID = strings.TrimSpace(v.ID)
		if v.ID == "" || seen[v.ID] {
			v.ID = freeID(seen, i+1)
		}
		seen[v.ID] = true
	}

	r.Summary.Critical = r.Count(SeverityCritical)
	r.Summary.High = r.Count(SeverityHigh)
	r.Summary.Medium = r.Count(SeverityMedium)
	r.Summary.Low = r.Count(SeverityLow)

	switch {
	case math.IsNaN(r.Summary.SecurityScore), r.Summary.SecurityScore < 0:
		r.Summary.SecurityScore = 0
	case r.Summary.SecurityScore > MaxSecurityScore:
		r.Summary.SecurityScore = MaxSecurityScore
	}
}

func freeID(seen map[string]bool, n int) string {
	for {
		id := fmt.Sprintf("vuln-%d", n)
		if !seen[id] {
			return id
		}
		n++
	}
}
