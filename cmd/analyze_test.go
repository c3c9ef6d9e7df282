package main

import (
	"context"
	"errors"
	"testing"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingModel struct {
	calls int
}

func (m *countingModel) Analyze(ctx context.Context, req llm.AnalyzeRequest) (*models.AnalysisResult, error) {
	m.calls++
	return &models.AnalysisResult{Summary: models.Summary{SecurityScore: 9}}, nil
}

func TestAnalyzeInput_RepositoryWithoutKey(t *testing.T) {
	model := &countingModel{}
	fetches := 0
	input := analyzeInput{
		fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			fetches++
			return []models.SourceFile{{Name: "a.go", Content: "package a"}}, nil
		},
	}

	_, _, err := input.run(context.Background(), analysis.NewOrchestrator(model, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, analysis.ErrMissingAPIKey))
	assert.Equal(t, 0, fetches, "nothing is fetched without a key")
	assert.Equal(t, 0, model.calls)
}

func TestAnalyzeInput_EmptyRepositoryPath(t *testing.T) {
	model := &countingModel{}
	input := analyzeInput{
		apiKey: "key",
		fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			return nil, nil
		},
	}

	_, _, err := input.run(context.Background(), analysis.NewOrchestrator(model, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, analysis.ErrReadFiles))
	assert.Equal(t, analysis.MsgReadFiles, analysis.UserMessage(err))
	assert.Equal(t, 0, model.calls)
}

func TestAnalyzeInput_FetchFailure(t *testing.T) {
	input := analyzeInput{
		apiKey: "key",
		fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			return nil, errors.New("404 Not Found")
		},
	}

	_, _, err := input.run(context.Background(), analysis.NewOrchestrator(&countingModel{}, 0))
	assert.True(t, errors.Is(err, analysis.ErrReadFiles))
}

func TestAnalyzeInput_Repository(t *testing.T) {
	model := &countingModel{}
	input := analyzeInput{
		apiKey: "key",
		fetch: func(ctx context.Context) ([]models.SourceFile, error) {
			return []models.SourceFile{{Name: "src/app.js", Content: "eval(x)"}}, nil
		},
	}

	result, files, err := input.run(context.Background(), analysis.NewOrchestrator(model, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, []string{"src/app.js"}, analysis.FileNames(files))
	assert.Equal(t, 9.0, result.Summary.SecurityScore)
}
