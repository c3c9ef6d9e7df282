package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/app"
	"github.com/BetterCallFirewall/Sentinel/internal/config"
	"github.com/BetterCallFirewall/Sentinel/internal/middlewares"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"dashboard", "new_analysis", "results", "reports", "history", "settings"}

type controller interface {
	Snapshot() app.Snapshot
	Navigate(view models.View) bool
	Submit(ctx context.Context, req app.SubmitRequest) error
	Reset()
	DefaultSystemPrompt() string
	SaveSystemPrompt(prompt string) error
	SaveAPIKey(ctx context.Context, apiKey string) (bool, error)
	ValidateStoredKey(ctx context.Context) bool
	Reports(limit int) ([]*models.Report, error)
	Report(id string) (*models.Report, error)
	Activity(limit int) ([]models.Activity, error)
	Dashboard() (app.DashboardStats, error)
	Chat(ctx context.Context, question string) (string, error)
}

type repoFetcher interface {
	Fetch(ctx context.Context, repo, dir, ref string) ([]models.SourceFile, error)
}

type hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Server struct {
	config     *config.Config
	controller controller
	hub        hub
	fetcher    repoFetcher
	pages      map[string]*template.Template
	server     *http.Server
}

// NewServer parses the page templates. fetcher may be nil to disable repository intake.
func NewServer(cfg *config.Config, c controller, h hub, fetcher repoFetcher) (*Server, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Server{
		config:     cfg,
		controller: c,
		hub:        h,
		fetcher:    fetcher,
		pages:      pages,
	}, nil
}

// Handler returns the routed handler with middlewares applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", s.showView(models.ViewDashboard))
	mux.HandleFunc("GET /analysis/new", s.showView(models.ViewNewAnalysis))
	mux.HandleFunc("GET /analysis", s.handleCurrentView)
	mux.HandleFunc("POST /analysis", s.handleSubmitForm)
	mux.HandleFunc("POST /analysis/reset", s.handleResetForm)
	mux.HandleFunc("GET /reports", s.showView(models.ViewReports))
	mux.HandleFunc("GET /reports/{id}", s.handleReportPage)
	mux.HandleFunc("GET /history", s.showView(models.ViewHistory))
	mux.HandleFunc("GET /settings", s.showView(models.ViewSettings))
	mux.HandleFunc("POST /settings", s.handleSaveSettingsForm)
	mux.HandleFunc("POST /settings/restore", s.handleRestoreSettingsForm)
	mux.HandleFunc("POST /settings/api-key", s.handleSaveAPIKeyForm)

	// API endpoints
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("POST /api/analysis", s.handleSubmitAPI)
	mux.HandleFunc("POST /api/analysis/reset", s.handleResetAPI)
	mux.HandleFunc("GET /api/reports", s.handleGetReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("POST /api/settings/validate", s.handleValidateKey)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	// Health check
	mux.HandleFunc(
		"GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	)

	return middlewares.Logging(middlewares.CORS(mux))
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.config.Web.ListenAddr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// saving an API key waits for the validation call
		WriteTimeout: 60 * time.Second,
	}

	log.Infof("🌐 Dashboard listening on %s", s.config.Web.ListenAddr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

var activityLabels = map[models.ActivityKind]string{
	models.ActivityAnalysisStarted:   "Análise iniciada",
	models.ActivityAnalysisCompleted: "Análise concluída",
	models.ActivityAnalysisFailed:    "Análise com erro",
	models.ActivityAnalysisReset:     "Análise reiniciada",
	models.ActivitySettingsSaved:     "Configurações",
}

var templateFuncs = template.FuncMap{
	"severityStyle": styleFor,
	"score": func(v float64) string {
		return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1)
	},
	"date": func(t time.Time) string {
		return t.Local().Format("02/01/2006 15:04")
	},
	"shortID": func(id string) string {
		if len(id) > 8 {
			return strings.ToUpper(id[:8])
		}
		return strings.ToUpper(id)
	},
	"join": strings.Join,
	"activityLabel": func(kind models.ActivityKind) string {
		if label, ok := activityLabels[kind]; ok {
			return label
		}
		return string(kind)
	},
}
