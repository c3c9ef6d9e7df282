package models

// AnalysisStatus is the coarse state of the current analysis.
// Idle→Analyzing on submit, Analyzing→Completed|Error, any→Idle on reset.
type AnalysisStatus string

const (
	StatusIdle      AnalysisStatus = "Idle"
	StatusAnalyzing AnalysisStatus = "Analyzing"
	StatusCompleted AnalysisStatus = "Completed"
	StatusError     AnalysisStatus = "Error"
)

// View is a navigable screen of the dashboard
type View string

const (
	ViewDashboard   View = "Dashboard"
	ViewNewAnalysis View = "NewAnalysis"
	ViewReports     View = "Reports"
	ViewHistory     View = "History"
	ViewSettings    View = "Settings"
)

// Views lists the screens in navigation order
var Views = []View{ViewDashboard, ViewNewAnalysis, ViewReports, ViewHistory, ViewSettings}

// ParseView returns the view named s, or false if there is none
func ParseView(s string) (View, bool) {
	for _, v := range Views {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}
