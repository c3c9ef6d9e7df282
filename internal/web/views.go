package web

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/app"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

type severityStyle struct {
	Label string
	Color string
}

var severityStyles = map[models.Severity]severityStyle{
	models.SeverityCritical: {Label: "Crítica", Color: "#EF5350"},
	models.SeverityHigh:     {Label: "Alta", Color: "#FFA726"},
	models.SeverityMedium:   {Label: "Média", Color: "#FFEE58"},
	models.SeverityLow:      {Label: "Baixa", Color: "#66BB6A"},
}

// styleFor never fails: results are normalized, but stored reports could predate that
func styleFor(s models.Severity) severityStyle {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return severityStyles[models.SeverityMedium]
}

type statusBadge struct {
	Label string
	Color string
}

var statusBadges = map[models.AnalysisStatus]statusBadge{
	models.StatusIdle:      {Label: "Aguardando", Color: "#6B7280"},
	models.StatusAnalyzing: {Label: "Analisando...", Color: "#5C6BC0"},
	models.StatusCompleted: {Label: "Ativo", Color: "#66BB6A"},
	models.StatusError:     {Label: "Erro", Color: "#EF5350"},
}

func badgeFor(s models.AnalysisStatus) statusBadge {
	if badge, ok := statusBadges[s]; ok {
		return badge
	}
	return statusBadges[models.StatusIdle]
}

type navItem struct {
	Label  string
	Href   string
	Active bool
}

var navigation = []struct {
	view  models.View
	label string
	href  string
}{
	{models.ViewDashboard, "Dashboard", "/"},
	{models.ViewNewAnalysis, "Nova Análise", "/analysis/new"},
	{models.ViewReports, "Relatórios", "/reports"},
	{models.ViewHistory, "Histórico", "/history"},
	{models.ViewSettings, "Configurações", "/settings"},
}

func navItems(current models.View) []navItem {
	items := make([]navItem, len(navigation))
	for i, n := range navigation {
		items[i] = navItem{Label: n.label, Href: n.href, Active: n.view == current}
	}
	return items
}

// chartSlice is one segment of the severity pie, in percent of the whole
type chartSlice struct {
	Label string
	Color string
	Value int
	Start float64
	End   float64
}

// severitySlices builds the pie segments, leaving out severities with no findings
func severitySlices(summary models.Summary) []chartSlice {
	total := summary.Critical + summary.High + summary.Medium + summary.Low
	if total == 0 {
		return nil
	}

	var slices []chartSlice
	var offset float64
	for _, s := range models.Severities {
		value := summaryCount(summary, s)
		if value <= 0 {
			continue
		}
		style := styleFor(s)
		share := float64(value) * 100 / float64(total)
		slices = append(slices, chartSlice{
			Label: style.Label,
			Color: style.Color,
			Value: value,
			Start: offset,
			End:   offset + share,
		})
		offset += share
	}
	return slices
}

func summaryCount(summary models.Summary, s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return summary.Critical
	case models.SeverityHigh:
		return summary.High
	case models.SeverityMedium:
		return summary.Medium
	case models.SeverityLow:
		return summary.Low
	}
	return 0
}

// conicGradient renders slices as a CSS background
func conicGradient(slices []chartSlice) template.CSS {
	if len(slices) == 0 {
		return template.CSS("#2C2C2C")
	}
	stops := make([]string, len(slices))
	for i, s := range slices {
		stops[i] = fmt.Sprintf("%s %.2f%% %.2f%%", s.Color, s.Start, s.End)
	}
	return template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
}

// monthBar is one bar of the dashboard chart with its height in percent
type monthBar struct {
	app.MonthCount
	Height float64
	Hot    bool
}

func monthBars(months []app.MonthCount) []monthBar {
	peak := 0
	for _, m := range months {
		peak = max(peak, m.Count)
	}
	bars := make([]monthBar, len(months))
	for i, m := range months {
		bars[i] = monthBar{MonthCount: m, Hot: m.Count > 15}
		if peak > 0 {
			bars[i].Height = float64(m.Count) * 100 / float64(peak)
		}
	}
	return bars
}
