package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	log "github.com/sirupsen/logrus"
)

// Model is the external model client
type Model interface {
	Analyze(ctx context.Context, req llm.AnalyzeRequest) (*models.AnalysisResult, error)
}

// Request is one submission of the New Analysis form or the CLI
type Request struct {
	Files        []FileSource
	SystemPrompt string
	APIKey       string
	Options      llm.ContentOptions
}

// Orchestrator reads submitted files and runs the single model call
type Orchestrator struct {
	model       Model
	maxFileSize int64
}

func NewOrchestrator(model Model, maxFileSize int64) *Orchestrator {
	return &Orchestrator{model: model, maxFileSize: maxFileSize}
}

// Read loads the text of every source
func (o *Orchestrator) Read(ctx context.Context, sources []FileSource) ([]models.SourceFile, error) {
	if len(sources) == 0 {
		return nil, ErrNoFiles
	}
	start := time.Now()
	files, err := ReadFiles(ctx, sources, o.maxFileSize)
	if err != nil {
		log.Errorf("❌ Reading files failed: %v", err)
		return nil, err
	}
	log.WithFields(log.Fields{
		"files":    len(files),
		"duration": time.Since(start),
	}).Debug("📂 Files read")
	return files, nil
}

// Analyze issues exactly one model request for files already read
func (o *Orchestrator) Analyze(ctx context.Context, files []models.SourceFile, systemPrompt, apiKey string, opts llm.ContentOptions) (*models.AnalysisResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	start := time.Now()
	result, err := o.model.Analyze(ctx, llm.AnalyzeRequest{
		APIKey:       apiKey,
		SystemPrompt: systemPrompt,
		Content:      llm.BuildUserContent(files, opts),
	})
	if err != nil {
		log.Errorf("❌ Analysis of %d files failed after %v: %v", len(files), time.Since(start), err)
		return nil, err
	}

	log.WithFields(log.Fields{
		"files":           len(files),
		"vulnerabilities": len(result.Vulnerabilities),
		"duration":        time.Since(start),
	}).Info("✅ Analysis complete")
	return result, nil
}

// Run checks the credential, reads the files and analyzes them.
// A missing credential fails before anything is read.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*models.AnalysisResult, []models.SourceFile, error) {
	if len(req.Files) == 0 {
		return nil, nil, ErrNoFiles
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, nil, ErrMissingAPIKey
	}

	files, err := o.Read(ctx, req.Files)
	if err != nil {
		return nil, nil, err
	}
	result, err := o.Analyze(ctx, files, req.SystemPrompt, req.APIKey, req.Options)
	if err != nil {
		return nil, files, err
	}
	return result, files, nil
}

// FileNames lists the names of files in order
func FileNames(files []models.SourceFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
