package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/BetterCallFirewall/Sentinel/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu        sync.Mutex
	calls     int
	validKeys map[string]bool
	lastReq   llm.AnalyzeRequest
	gate      chan struct{}
	result    *models.AnalysisResult
	err       error
}

func (m *fakeModel) Analyze(ctx context.Context, req llm.AnalyzeRequest) (*models.AnalysisResult, error) {
	m.mu.Lock()
	m.calls++
	m.lastReq = req
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return m.result, m.err
}

func (m *fakeModel) ValidateKey(ctx context.Context, apiKey string) bool {
	return m.validKeys[apiKey]
}

func (m *fakeModel) Chat(ctx context.Context, apiKey, question string, result *models.AnalysisResult) (string, error) {
	if result == nil {
		return "sem contexto: " + question, nil
	}
	return "resposta: " + question, nil
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (n *recordingNotifier) Broadcast(msgType string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msgType == MessageTypeState {
		n.snapshots = append(n.snapshots, data.(Snapshot))
	}
}

func (n *recordingNotifier) statuses() []models.AnalysisStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.AnalysisStatus
	for _, s := range n.snapshots {
		out = append(out, s.Status)
	}
	return out
}

// scenarioResult has 1 Critical, 1 High, 2 Medium and 1 Low finding
func scenarioResult() *models.AnalysisResult {
	result := &models.AnalysisResult{
		Summary: models.Summary{SecurityScore: 6.5, AISummary: "resumo"},
		Vulnerabilities: []models.Vulnerability{
			{Severity: models.SeverityCritical, Location: "a", Description: "d", Remediation: "r"},
			{Severity: models.SeverityHigh, Location: "a", Description: "d", Remediation: "r"},
			{Severity: models.SeverityMedium, Location: "a", Description: "d", Remediation: "r"},
			{Severity: "Unknown", Location: "a", Description: "d", Remediation: "r"},
			{Severity: models.SeverityLow, Location: "a", Description: "d", Remediation: "r"},
		},
	}
	result.Normalize()
	return result
}

func newTestController(t *testing.T, model *fakeModel, opts Options) (*Controller, *storage.MemoryStorage, *recordingNotifier) {
	t.Helper()
	store := storage.NewMemoryStorage()
	c, err := NewController(context.Background(), store, model, opts)
	require.NoError(t, err)
	n := &recordingNotifier{}
	c.SetNotifier(n)
	return c, store, n
}

func oneFile() []analysis.FileSource {
	return []analysis.FileSource{analysis.StaticFile{FileName: "login.js", Text: "eval(req.body)"}}
}

func TestController_Defaults(t *testing.T) {
	c, _, _ := newTestController(t, &fakeModel{}, Options{})

	snap := c.Snapshot()
	assert.Equal(t, models.ViewDashboard, snap.View)
	assert.Equal(t, models.StatusIdle, snap.Status)
	assert.Equal(t, llm.DefaultSystemPrompt, snap.SystemPrompt)
	assert.False(t, snap.HasAPIKey)
	assert.Nil(t, snap.Result)
}

func TestController_LoadsPersistedSettings(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, store.SetSetting(storage.KeySystemPrompt, "salvo"))
	require.NoError(t, store.SetSetting(storage.KeyAPIKey, "AIzaSaved1234"))

	c, err := NewController(context.Background(), store, &fakeModel{}, Options{FallbackAPIKey: "env-key"})
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, "salvo", snap.SystemPrompt)
	assert.True(t, snap.HasAPIKey)
	assert.Equal(t, "••••••••1234", snap.MaskedAPIKey)
}

func TestController_SubmitZeroFiles(t *testing.T) {
	model := &fakeModel{result: scenarioResult()}
	c, _, n := newTestController(t, model, Options{FallbackAPIKey: "key"})
	before := c.Snapshot()

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{}))
	c.Wait()

	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 0, model.callCount())
	assert.Empty(t, n.statuses())
}

func TestController_SubmitWithoutKey(t *testing.T) {
	model := &fakeModel{result: scenarioResult()}
	c, _, _ := newTestController(t, model, Options{})

	err := c.Submit(context.Background(), SubmitRequest{Files: oneFile()})
	c.Wait()

	assert.ErrorIs(t, err, analysis.ErrMissingAPIKey)
	assert.Equal(t, 0, model.callCount())
	snap := c.Snapshot()
	assert.Equal(t, models.StatusError, snap.Status)
	assert.Equal(t, analysis.MsgMissingAPIKey, snap.Message)
}

func TestController_SubmitSuccess(t *testing.T) {
	model := &fakeModel{result: scenarioResult(), gate: make(chan struct{})}
	c, store, n := newTestController(t, model, Options{FallbackAPIKey: "key"})
	require.NoError(t, c.SaveSystemPrompt("Seja breve."))

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))

	busy := c.Snapshot()
	assert.Equal(t, models.StatusAnalyzing, busy.Status)
	assert.True(t, busy.Busy)
	assert.False(t, busy.ShowResults)

	close(model.gate)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, models.StatusCompleted, snap.Status)
	assert.True(t, snap.ShowResults)
	assert.Equal(t, "Results", snap.ActiveView())
	require.NotNil(t, snap.Result)
	assert.Equal(t, 1, snap.Result.Summary.Critical)
	assert.Equal(t, 1, snap.Result.Summary.High)
	assert.Equal(t, 2, snap.Result.Summary.Medium)
	assert.Equal(t, 1, snap.Result.Summary.Low)
	assert.Equal(t, []string{"login.js"}, snap.Files)

	assert.Equal(t, 1, model.callCount())
	assert.Equal(t, "Seja breve.", model.lastReq.SystemPrompt)
	assert.Equal(t, "key", model.lastReq.APIKey)

	report, err := store.GetReport(snap.ReportID)
	require.NoError(t, err)
	assert.Equal(t, []string{"login.js"}, report.Files)

	statuses := n.statuses()
	assert.Equal(t, []models.AnalysisStatus{models.StatusAnalyzing, models.StatusCompleted}, statuses[len(statuses)-2:])
}

func TestController_SubmitRejectsSecondFlight(t *testing.T) {
	model := &fakeModel{result: scenarioResult(), gate: make(chan struct{})}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	err := c.Submit(context.Background(), SubmitRequest{Files: oneFile()})
	assert.ErrorIs(t, err, analysis.ErrAnalysisInProgress)

	close(model.gate)
	c.Wait()
	assert.Equal(t, 1, model.callCount())
}

func TestController_SubmitInvalidKey(t *testing.T) {
	model := &fakeModel{err: errors.Join(llm.ErrInvalidAPIKey, errors.New("API key not valid"))}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "bad"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, models.StatusError, snap.Status)
	assert.Equal(t, analysis.MsgInvalidAPIKey, snap.Message)
	assert.Nil(t, snap.Result)
}

func TestController_SubmitGenericFailureThenRetry(t *testing.T) {
	model := &fakeModel{err: llm.ErrAnalysisFailed}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	assert.Equal(t, analysis.MsgAnalysisFailed, c.Snapshot().Message)

	model.mu.Lock()
	model.err = nil
	model.result = scenarioResult()
	model.mu.Unlock()

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, models.StatusCompleted, snap.Status)
	assert.Empty(t, snap.Message)
}

func TestController_Reset(t *testing.T) {
	model := &fakeModel{result: scenarioResult()}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	require.Equal(t, models.StatusCompleted, c.Snapshot().Status)

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, models.StatusIdle, snap.Status)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.ReportID)

	model.err = llm.ErrAnalysisFailed
	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	require.Equal(t, models.StatusError, c.Snapshot().Status)

	c.Reset()
	assert.Equal(t, models.StatusIdle, c.Snapshot().Status)
	assert.Empty(t, c.Snapshot().Message)
}

func TestController_ResetDuringFlightDropsOutcome(t *testing.T) {
	model := &fakeModel{result: scenarioResult(), gate: make(chan struct{})}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Reset()
	assert.Equal(t, models.StatusIdle, c.Snapshot().Status)

	assert.ErrorIs(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}), analysis.ErrAnalysisInProgress)

	close(model.gate)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, models.StatusIdle, snap.Status)
	assert.Nil(t, snap.Result)
}

func TestController_Navigate(t *testing.T) {
	model := &fakeModel{result: scenarioResult(), gate: make(chan struct{})}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	assert.True(t, c.Navigate(models.ViewReports))
	assert.Equal(t, models.ViewReports, c.Snapshot().View)

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	assert.False(t, c.Navigate(models.ViewSettings), "navigation is ignored while analyzing")
	assert.Equal(t, models.ViewNewAnalysis, c.Snapshot().View)

	close(model.gate)
	c.Wait()
	require.True(t, c.Snapshot().ShowResults)

	assert.True(t, c.Navigate(models.ViewHistory))
	assert.True(t, c.Snapshot().ShowResults, "results stay on screen until reset")

	assert.True(t, c.Navigate(models.ViewNewAnalysis))
	snap := c.Snapshot()
	assert.Equal(t, models.StatusIdle, snap.Status)
	assert.Nil(t, snap.Result)
	assert.Equal(t, "NewAnalysis", snap.ActiveView())
}

func TestController_SystemPrompt(t *testing.T) {
	c, store, _ := newTestController(t, &fakeModel{}, Options{})

	assert.ErrorIs(t, c.SaveSystemPrompt("   "), ErrEmptyPrompt)

	require.NoError(t, c.SaveSystemPrompt("Novo prompt"))
	stored, err := store.GetSetting(storage.KeySystemPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Novo prompt", stored)

	reloaded, err := NewController(context.Background(), store, &fakeModel{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Novo prompt", reloaded.Settings().SystemPrompt)

	assert.Equal(t, llm.DefaultSystemPrompt, c.DefaultSystemPrompt())
	assert.Equal(t, "Novo prompt", c.Settings().SystemPrompt, "restoring the default does not save it")
}

func TestController_SaveAPIKey(t *testing.T) {
	model := &fakeModel{validKeys: map[string]bool{"good-key": true}}
	c, store, _ := newTestController(t, model, Options{})
	ctx := context.Background()

	_, err := c.SaveAPIKey(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	valid, err := c.SaveAPIKey(ctx, "bad-key")
	require.NoError(t, err)
	assert.False(t, valid)
	stored, err := store.GetSetting(storage.KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "bad-key", stored, "rejected keys are still saved")

	valid, err = c.SaveAPIKey(ctx, " good-key ")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.True(t, c.ValidateStoredKey(ctx))
	assert.Equal(t, "good-key", c.Settings().APIKey)
}

func TestController_ValidateStoredKeyWithoutKey(t *testing.T) {
	c, _, _ := newTestController(t, &fakeModel{validKeys: map[string]bool{"": true}}, Options{})
	assert.False(t, c.ValidateStoredKey(context.Background()))
}

func TestController_Activity(t *testing.T) {
	c, _, _ := newTestController(t, &fakeModel{result: scenarioResult()}, Options{FallbackAPIKey: "key"})

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	c.Reset()

	activity, err := c.Activity(0)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, models.ActivityAnalysisReset, activity[0].Kind)
	assert.Equal(t, models.ActivityAnalysisCompleted, activity[1].Kind)
	assert.Equal(t, models.ActivityAnalysisStarted, activity[2].Kind)
}

func TestController_Chat(t *testing.T) {
	c, _, _ := newTestController(t, &fakeModel{result: scenarioResult()}, Options{})
	_, err := c.Chat(context.Background(), "oi")
	assert.ErrorIs(t, err, analysis.ErrMissingAPIKey)

	c, _, _ = newTestController(t, &fakeModel{result: scenarioResult()}, Options{FallbackAPIKey: "key"})
	answer, err := c.Chat(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, "sem contexto: oi", answer)

	require.NoError(t, c.Submit(context.Background(), SubmitRequest{Files: oneFile()}))
	c.Wait()
	answer, err = c.Chat(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, "resposta: oi", answer)
}

func TestComputeDashboard(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	report := func(id string, at time.Time, critical, high int, score float64, findings int) *models.Report {
		vulns := make([]models.Vulnerability, findings)
		return &models.Report{
			ID:        id,
			CreatedAt: at,
			Result: models.AnalysisResult{
				Summary:         models.Summary{Critical: critical, High: high, SecurityScore: score},
				Vulnerabilities: vulns,
			},
		}
	}
	reports := []*models.Report{
		report("r1", time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), 2, 1, 6, 4),
		report("r2", time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), 0, 3, 8, 3),
		report("r3", time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC), 1, 0, 7, 2),
		report("r4", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), 5, 5, 1, 9),
	}

	stats := computeDashboard(reports, now)

	assert.Equal(t, 4, stats.TotalAnalyses)
	assert.Equal(t, 8, stats.CriticalFindings)
	assert.Equal(t, 9, stats.HighFindings)
	assert.InDelta(t, 5.5, stats.AverageScore, 0.001)
	assert.Equal(t, 2, stats.ThisMonth)
	assert.Equal(t, []MonthCount{
		{Label: "Out", Count: 0},
		{Label: "Nov", Count: 0},
		{Label: "Dez", Count: 0},
		{Label: "Jan", Count: 2},
		{Label: "Fev", Count: 0},
		{Label: "Mar", Count: 7},
	}, stats.Monthly)
	require.Len(t, stats.Recent, 3)
	assert.Equal(t, "r1", stats.Recent[0].ID)
}

func TestComputeDashboard_Empty(t *testing.T) {
	stats := computeDashboard(nil, time.Now())
	assert.Zero(t, stats.TotalAnalyses)
	assert.Zero(t, stats.AverageScore)
	assert.Len(t, stats.Monthly, 6)
	assert.Empty(t, stats.Recent)
}

func TestController_SubmitFetch(t *testing.T) {
	model := &fakeModel{result: scenarioResult()}
	c, _, _ := newTestController(t, model, Options{FallbackAPIKey: "key"})

	err := c.Submit(context.Background(), SubmitRequest{
		Fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			return []models.SourceFile{{Name: "src/app.js", Content: "x"}}, nil
		},
	})
	require.NoError(t, err)
	c.Wait()
	assert.Equal(t, models.StatusCompleted, c.Snapshot().Status)
	assert.Contains(t, model.lastReq.Content, "Arquivo: src/app.js")

	err = c.Submit(context.Background(), SubmitRequest{
		Fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			return nil, errors.New("404 Not Found")
		},
	})
	assert.ErrorIs(t, err, analysis.ErrReadFiles)
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, models.StatusError, snap.Status)
	assert.Equal(t, analysis.MsgReadFiles, snap.Message)
	assert.Equal(t, 1, model.callCount())
}
