package app

import (
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

const (
	dashboardMonths = 6
	dashboardRecent = 3
)

var monthLabels = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// MonthCount is one bar of the "Vulnerabilidades por Mês" chart
type MonthCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DashboardStats are the dashboard metrics computed from stored reports
type DashboardStats struct {
	TotalAnalyses    int              `json:"totalAnalyses"`
	CriticalFindings int              `json:"criticalFindings"`
	HighFindings     int              `json:"highFindings"`
	AverageScore     float64          `json:"averageScore"`
	ThisMonth        int              `json:"thisMonth"`
	Monthly          []MonthCount     `json:"monthly"`
	Recent           []*models.Report `json:"recent"`
}

// computeDashboard aggregates reports, which must be ordered newest first
func computeDashboard(reports []*models.Report, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalAnalyses: len(reports),
		Monthly:       make([]MonthCount, dashboardMonths),
		Recent:        reports[:min(dashboardRecent, len(reports))],
	}

	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := range stats.Monthly {
		month := currentMonth.AddDate(0, i-dashboardMonths+1, 0)
		stats.Monthly[i].Label = monthLabels[month.Month()-1]
	}

	var scoreSum float64
	for _, r := range reports {
		stats.CriticalFindings += r.Result.Summary.Critical
		stats.HighFindings += r.Result.Summary.High
		scoreSum += r.Result.Summary.SecurityScore

		created := r.CreatedAt.In(now.Location())
		months := (currentMonth.Year()-created.Year())*12 + int(currentMonth.Month()-created.Month())
		if months == 0 {
			stats.ThisMonth++
		}
		if months >= 0 && months < dashboardMonths {
			stats.Monthly[dashboardMonths-1-months].Count += r.FindingCount()
		}
	}
	if len(reports) > 0 {
		stats.AverageScore = scoreSum / float64(len(reports))
	}
	return stats
}
