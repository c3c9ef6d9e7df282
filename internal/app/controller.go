package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/BetterCallFirewall/Sentinel/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = storage.ErrNotFound
	ErrEmptyPrompt = errors.New("system prompt is empty")
	ErrEmptyAPIKey = errors.New("api key is empty")
)

// MessageTypeState is the websocket message type carrying a Snapshot
const MessageTypeState = "state"

// Model is everything the controller needs from the model client
type Model interface {
	analysis.Model
	ValidateKey(ctx context.Context, apiKey string) bool
	Chat(ctx context.Context, apiKey, question string, result *models.AnalysisResult) (string, error)
}

// Notifier receives every state change
type Notifier interface {
	Broadcast(msgType string, data any)
}

type Options struct {
	// FallbackAPIKey is used when the settings store holds no key
	FallbackAPIKey string
	MaxFileSize    int64
	Now            func() time.Time
}

// SubmitRequest is a New Analysis submission.
// Fetch, when set, loads the files instead (repository intake); its errors count as read failures.
type SubmitRequest struct {
	Files   []analysis.FileSource
	Fetch   func(ctx context.Context) ([]models.SourceFile, error)
	Options llm.ContentOptions
}

func (r SubmitRequest) empty() bool {
	return len(r.Files) == 0 && r.Fetch == nil
}

func (r SubmitRequest) describe() string {
	if len(r.Files) == 0 {
		return "repositório"
	}
	return fmt.Sprintf("%d arquivo(s)", len(r.Files))
}

// Controller is the single owner of the application state
type Controller struct {
	ctx          context.Context
	store        storage.Store
	model        Model
	orchestrator *analysis.Orchestrator
	fallbackKey  string
	now          func() time.Time

	mu         sync.Mutex
	state      State
	settings   models.Settings
	running    bool
	generation uint64
	notifier   Notifier

	wg sync.WaitGroup
}

// NewController loads the persisted settings. ctx bounds the background model calls.
func NewController(ctx context.Context, store storage.Store, model Model, opts Options) (*Controller, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		ctx:          ctx,
		store:        store,
		model:        model,
		orchestrator: analysis.NewOrchestrator(model, opts.MaxFileSize),
		fallbackKey:  strings.TrimSpace(opts.FallbackAPIKey),
		now:          now,
	}

	prompt, err := store.GetSetting(storage.KeySystemPrompt)
	switch {
	case errors.Is(err, storage.ErrNotFound) || (err == nil && strings.TrimSpace(prompt) == ""):
		prompt = llm.DefaultSystemPrompt
	case err != nil:
		return nil, fmt.Errorf("loading system prompt: %w", err)
	}

	apiKey, err := store.GetSetting(storage.KeyAPIKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("loading api key: %w", err)
	}

	c.settings = models.Settings{SystemPrompt: prompt, APIKey: apiKey}
	c.state = State{View: models.ViewDashboard, Status: models.StatusIdle, UpdatedAt: now()}
	return c, nil
}

// SetNotifier attaches the live status hub
func (c *Controller) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	settings := c.effectiveSettingsLocked()
	return Snapshot{
		View:         s.View,
		Status:       s.Status,
		Busy:         s.Status == models.StatusAnalyzing,
		ShowResults:  s.Status == models.StatusCompleted && s.Result != nil,
		Result:       s.Result,
		ReportID:     s.ReportID,
		Files:        append([]string(nil), s.Files...),
		Message:      s.Message,
		SystemPrompt: c.settings.SystemPrompt,
		HasAPIKey:    settings.HasAPIKey(),
		MaskedAPIKey: settings.MaskedAPIKey(),
		UpdatedAt:    s.UpdatedAt,
	}
}

func (c *Controller) effectiveSettingsLocked() models.Settings {
	settings := c.settings
	if !settings.HasAPIKey() {
		settings.APIKey = c.fallbackKey
	}
	return settings
}

// commitLocked stamps the state and returns the snapshot to publish after unlocking
func (c *Controller) commitLocked() (Snapshot, Notifier) {
	c.state.UpdatedAt = c.now()
	return c.snapshotLocked(), c.notifier
}

func publish(snapshot Snapshot, n Notifier) {
	if n != nil {
		n.Broadcast(MessageTypeState, snapshot)
	}
}

func (c *Controller) recordLocked(kind models.ActivityKind, format string, args ...any) {
	activity := models.Activity{
		ID:      uuid.NewString(),
		At:      c.now(),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
	if err := c.store.AppendActivity(activity); err != nil {
		log.Warnf("⚠️ Failed to record activity %s: %v", kind, err)
	}
}

func (c *Controller) resetLocked() {
	c.generation++
	c.state.Status = models.StatusIdle
	c.state.Result = nil
	c.state.ReportID = ""
	c.state.Files = nil
	c.state.Message = ""
}

// Navigate switches the active view. It is ignored while an analysis is in flight;
// navigating to New Analysis resets the analysis.
func (c *Controller) Navigate(view models.View) bool {
	c.mu.Lock()
	if c.state.Status == models.StatusAnalyzing {
		c.mu.Unlock()
		log.Debugf("Navigation to %s ignored while analyzing", view)
		return false
	}
	if view == models.ViewNewAnalysis {
		c.resetLocked()
	}
	c.state.View = view
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	publish(snapshot, n)
	return true
}

// Submit starts an analysis. Files are read before it returns; the model call runs
// in the background and its outcome is published through the Notifier.
// Zero files is a no-op.
func (c *Controller) Submit(ctx context.Context, req SubmitRequest) error {
	if req.empty() {
		return nil
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return analysis.ErrAnalysisInProgress
	}

	settings := c.effectiveSettingsLocked()
	if !settings.HasAPIKey() {
		c.state.Status = models.StatusError
		c.state.Result = nil
		c.state.ReportID = ""
		c.state.Message = analysis.UserMessage(analysis.ErrMissingAPIKey)
		c.recordLocked(models.ActivityAnalysisFailed, "Análise não iniciada: chave de API ausente")
		snapshot, n := c.commitLocked()
		c.mu.Unlock()

		log.Warn("⚠️ Analysis rejected: no API key configured")
		publish(snapshot, n)
		return analysis.ErrMissingAPIKey
	}

	c.running = true
	c.generation++
	gen := c.generation
	c.state.View = models.ViewNewAnalysis
	c.state.Status = models.StatusAnalyzing
	c.state.Result = nil
	c.state.ReportID = ""
	c.state.Files = nil
	c.state.Message = ""
	c.recordLocked(models.ActivityAnalysisStarted, "Análise iniciada: %s", req.describe())
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	publish(snapshot, n)
	log.Infof("🔄 Starting analysis: %s", req.describe())

	files, err := c.load(ctx, req)
	if err != nil {
		c.finish(gen, nil, nil, err)
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.orchestrator.Analyze(c.ctx, files, settings.SystemPrompt, settings.APIKey, req.Options)
		c.finish(gen, files, result, err)
	}()
	return nil
}

func (c *Controller) load(ctx context.Context, req SubmitRequest) ([]models.SourceFile, error) {
	if req.Fetch == nil {
		return c.orchestrator.Read(ctx, req.Files)
	}
	files, err := req.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", analysis.ErrReadFiles, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: repository path has no files", analysis.ErrReadFiles)
	}
	return files, nil
}

func (c *Controller) finish(gen uint64, files []models.SourceFile, result *models.AnalysisResult, err error) {
	c.mu.Lock()
	c.running = false
	if gen != c.generation {
		c.mu.Unlock()
		log.Info("🗑️ Discarding analysis outcome after reset")
		return
	}

	c.state.Files = analysis.FileNames(files)
	if err != nil {
		c.state.Status = models.StatusError
		c.state.Result = nil
		c.state.Message = analysis.UserMessage(err)
		c.recordLocked(models.ActivityAnalysisFailed, "Análise falhou: %s", c.state.Message)
	} else {
		report := &models.Report{
			ID:        uuid.NewString(),
			CreatedAt: c.now(),
			Files:     c.state.Files,
			Result:    *result,
		}
		if err := c.store.SaveReport(report); err != nil {
			log.Warnf("⚠️ Failed to save report %s: %v", report.ID, err)
		}
		c.state.Status = models.StatusCompleted
		c.state.Result = result
		c.state.ReportID = report.ID
		c.state.Message = ""
		c.recordLocked(models.ActivityAnalysisCompleted,
			"Análise concluída: %d vulnerabilidade(s), nota %.1f",
			len(result.Vulnerabilities), result.Summary.SecurityScore)
	}
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	publish(snapshot, n)
}

// Wait blocks until background model calls have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Reset returns to Idle with no result from any status.
// An analysis still in flight keeps the guard until it returns, and its outcome is dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.recordLocked(models.ActivityAnalysisReset, "Análise reiniciada")
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	publish(snapshot, n)
}

// Settings returns the stored settings
func (c *Controller) Settings() models.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// DefaultSystemPrompt is what "restore default" puts in the editor
func (c *Controller) DefaultSystemPrompt() string {
	return llm.DefaultSystemPrompt
}

// SaveSystemPrompt persists a new instruction prompt
func (c *Controller) SaveSystemPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	if err := c.store.SetSetting(storage.KeySystemPrompt, prompt); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("saving system prompt: %w", err)
	}
	c.settings.SystemPrompt = prompt
	c.recordLocked(models.ActivitySettingsSaved, "Prompt do sistema atualizado")
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	log.Info("💾 System prompt saved")
	publish(snapshot, n)
	return nil
}

// SaveAPIKey persists the credential and then checks it against the provider.
// The key is kept even when the check fails.
func (c *Controller) SaveAPIKey(ctx context.Context, apiKey string) (bool, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return false, ErrEmptyAPIKey
	}

	c.mu.Lock()
	if err := c.store.SetSetting(storage.KeyAPIKey, apiKey); err != nil {
		c.mu.Unlock()
		return false, fmt.Errorf("saving api key: %w", err)
	}
	c.settings.APIKey = apiKey
	c.recordLocked(models.ActivitySettingsSaved, "Chave de API atualizada")
	snapshot, n := c.commitLocked()
	c.mu.Unlock()

	publish(snapshot, n)

	valid := c.model.ValidateKey(ctx, apiKey)
	if valid {
		log.Info("✅ API key saved and accepted")
	} else {
		log.Warn("⚠️ API key saved but rejected by the provider")
	}
	return valid, nil
}

// ValidateStoredKey checks the effective credential
func (c *Controller) ValidateStoredKey(ctx context.Context) bool {
	c.mu.Lock()
	settings := c.effectiveSettingsLocked()
	c.mu.Unlock()

	if !settings.HasAPIKey() {
		return false
	}
	return c.model.ValidateKey(ctx, settings.APIKey)
}

// Reports lists stored reports newest first
func (c *Controller) Reports(limit int) ([]*models.Report, error) {
	return c.store.ListReports(limit)
}

// Report returns one stored report or ErrNotFound
func (c *Controller) Report(id string) (*models.Report, error) {
	return c.store.GetReport(id)
}

// Activity lists the activity log newest first
func (c *Controller) Activity(limit int) ([]models.Activity, error) {
	return c.store.ListActivity(limit)
}

// Dashboard computes the dashboard metrics from stored reports
func (c *Controller) Dashboard() (DashboardStats, error) {
	reports, err := c.store.ListReports(0)
	if err != nil {
		return DashboardStats{}, err
	}
	return computeDashboard(reports, c.now()), nil
}

// Chat answers a question about the current result (if any)
func (c *Controller) Chat(ctx context.Context, question string) (string, error) {
	c.mu.Lock()
	settings := c.effectiveSettingsLocked()
	result := c.state.Result
	c.mu.Unlock()

	if !settings.HasAPIKey() {
		return "", analysis.ErrMissingAPIKey
	}
	return c.model.Chat(ctx, settings.APIKey, question, result)
}
