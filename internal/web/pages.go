package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/app"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	maxUploadMemory = 32 << 20
	listLimit       = 100
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

type page struct {
	Title     string
	Nav       []navItem
	Status    statusBadge
	State     app.Snapshot
	Flash     string
	FlashKind string
	Data      any
}

type dashboardData struct {
	Stats app.DashboardStats
	Bars  []monthBar
}

type newAnalysisData struct {
	GitHubEnabled bool
}

type resultsData struct {
	Result   *models.AnalysisResult
	Report   *models.Report
	Slices   []chartSlice
	Gradient template.CSS
}

type reportsData struct {
	Reports []*models.Report
}

type historyData struct {
	Activity []models.Activity
}

type settingsData struct {
	Prompt string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, p page) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	p.Nav = navItems(p.State.View)
	p.Status = badgeFor(p.State.Status)
	if p.Flash == "" && p.State.Message != "" {
		p.Flash, p.FlashKind = p.State.Message, flashError
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Errorf("❌ Failed to render %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// showView navigates to view and renders whatever the state says is active
func (s *Server) showView(view models.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.controller.Navigate(view)
		s.renderActive(w, r, "", "")
	}
}

func (s *Server) handleCurrentView(w http.ResponseWriter, r *http.Request) {
	s.renderActive(w, r, "", "")
}

func (s *Server) renderActive(w http.ResponseWriter, r *http.Request, flash, kind string) {
	snap := s.controller.Snapshot()
	p := page{State: snap, Flash: flash, FlashKind: kind}

	if snap.ShowResults {
		p.Title = "Resultados da Análise"
		p.Data = newResultsData(snap.Result, nil)
		s.render(w, http.StatusOK, "results", p)
		return
	}

	switch snap.View {
	case models.ViewNewAnalysis:
		p.Title = "Nova Análise"
		p.Data = newAnalysisData{GitHubEnabled: s.fetcher != nil}
		s.render(w, http.StatusOK, "new_analysis", p)

	case models.ViewReports:
		reports, err := s.controller.Reports(listLimit)
		if err != nil {
			s.internalError(w, "listing reports", err)
			return
		}
		p.Title = "Relatórios"
		p.Data = reportsData{Reports: reports}
		s.render(w, http.StatusOK, "reports", p)

	case models.ViewHistory:
		activity, err := s.controller.Activity(listLimit)
		if err != nil {
			s.internalError(w, "listing activity", err)
			return
		}
		p.Title = "Histórico"
		p.Data = historyData{Activity: activity}
		s.render(w, http.StatusOK, "history", p)

	case models.ViewSettings:
		p.Title = "Configurações"
		p.Data = settingsData{Prompt: snap.SystemPrompt}
		s.render(w, http.StatusOK, "settings", p)

	default:
		stats, err := s.controller.Dashboard()
		if err != nil {
			s.internalError(w, "computing dashboard", err)
			return
		}
		p.Title = "Dashboard"
		p.Data = dashboardData{Stats: stats, Bars: monthBars(stats.Monthly)}
		s.render(w, http.StatusOK, "dashboard", p)
	}
}

func newResultsData(result *models.AnalysisResult, report *models.Report) resultsData {
	slices := severitySlices(result.Summary)
	return resultsData{
		Result:   result,
		Report:   report,
		Slices:   slices,
		Gradient: conicGradient(slices),
	}
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	log.Errorf("❌ Failed %s: %v", what, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	report, err := s.controller.Report(r.PathValue("id"))
	if errors.Is(err, app.ErrNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "loading report", err)
		return
	}

	s.render(w, http.StatusOK, "results", page{
		Title: "Relatório",
		State: s.controller.Snapshot(),
		Data:  newResultsData(&report.Result, report),
	})
}

// submitRequest turns the New Analysis form into a SubmitRequest.
// The file input posts an empty part when nothing is selected; those are skipped.
func (s *Server) submitRequest(r *http.Request) (app.SubmitRequest, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return app.SubmitRequest{}, err
	}

	req := app.SubmitRequest{
		Options: llm.ContentOptions{
			Deep:         r.FormValue("deep") != "",
			Dependencies: r.FormValue("deps") != "",
		},
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			if header.Filename == "" {
				continue
			}
			req.Files = append(req.Files, analysis.MultipartFile{Header: header})
		}
	}

	repo := strings.TrimSpace(r.FormValue("repo"))
	if len(req.Files) == 0 && repo != "" && s.fetcher != nil {
		dir := strings.TrimSpace(r.FormValue("path"))
		ref := strings.TrimSpace(r.FormValue("ref"))
		req.Fetch = func(ctx context.Context) ([]models.SourceFile, error) {
			return s.fetcher.Fetch(ctx, repo, dir, ref)
		}
	}
	return req, nil
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	req, err := s.submitRequest(r)
	if err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	// errors are reflected in the state; the page shows them
	if err := s.controller.Submit(r.Context(), req); err != nil {
		log.Warnf("⚠️ Submission failed: %v", err)
	}
	http.Redirect(w, r, "/analysis", http.StatusSeeOther)
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	s.controller.Reset()
	http.Redirect(w, r, "/analysis", http.StatusSeeOther)
}

func (s *Server) renderSettings(w http.ResponseWriter, status int, prompt, flash, kind string) {
	s.render(w, status, "settings", page{
		Title:     "Configurações",
		State:     s.controller.Snapshot(),
		Flash:     flash,
		FlashKind: kind,
		Data:      settingsData{Prompt: prompt},
	})
}

func (s *Server) handleSaveSettingsForm(w http.ResponseWriter, r *http.Request) {
	prompt := r.PostFormValue("systemPrompt")
	err := s.controller.SaveSystemPrompt(prompt)
	if errors.Is(err, app.ErrEmptyPrompt) {
		s.renderSettings(w, http.StatusBadRequest, prompt, "O prompt do sistema não pode ficar vazio.", flashError)
		return
	}
	if err != nil {
		s.internalError(w, "saving system prompt", err)
		return
	}
	s.renderSettings(w, http.StatusOK, prompt, "Salvo!", flashSuccess)
}

// handleRestoreSettingsForm fills the editor with the default prompt without saving it
func (s *Server) handleRestoreSettingsForm(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, http.StatusOK, s.controller.DefaultSystemPrompt(),
		"Prompt padrão restaurado. Clique em Salvar Alterações para aplicá-lo.", flashSuccess)
}

func (s *Server) handleSaveAPIKeyForm(w http.ResponseWriter, r *http.Request) {
	prompt := s.controller.Snapshot().SystemPrompt

	valid, err := s.controller.SaveAPIKey(r.Context(), r.PostFormValue("apiKey"))
	switch {
	case errors.Is(err, app.ErrEmptyAPIKey):
		s.renderSettings(w, http.StatusBadRequest, prompt, "Informe uma chave de API.", flashError)
	case err != nil:
		s.internalError(w, "saving api key", err)
	case valid:
		s.renderSettings(w, http.StatusOK, prompt, "Chave de API salva e validada.", flashSuccess)
	default:
		s.renderSettings(w, http.StatusOK, prompt, "Chave de API salva, mas o Gemini não a aceitou.", flashError)
	}
}
