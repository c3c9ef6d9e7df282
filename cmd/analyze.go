package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/analysis"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/BetterCallFirewall/Sentinel/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	repo   string
	path   string
	ref    string
	apiKey string
	deep   bool
	deps   bool
	asJSON bool
	save   bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze local files or a GitHub repository path and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.repo == "" {
				return errors.New("pass files to analyze or --repo")
			}
			return runAnalyze(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "GitHub repository (owner/name or URL)")
	cmd.Flags().StringVar(&opts.path, "path", "", "directory or file inside the repository")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "branch, tag or commit")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (default: stored key, then config)")
	cmd.Flags().BoolVar(&opts.deep, "deep", true, "ask for a deep analysis")
	cmd.Flags().BoolVar(&opts.deps, "deps", true, "include dependency review")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the raw JSON result")
	cmd.Flags().BoolVar(&opts.save, "save", true, "store the report so it shows up in the dashboard")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, args []string) error {
	cfg := root.cfg
	ctx := cmd.Context()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	apiKey, err := resolveAPIKey(opts.apiKey, store, cfg.LLM.ApiKey)
	if err != nil {
		return err
	}

	prompt, err := store.GetSetting(storage.KeySystemPrompt)
	if err != nil || strings.TrimSpace(prompt) == "" {
		prompt = llm.DefaultSystemPrompt
	}

	contentOpts := llm.ContentOptions{Deep: opts.deep, Dependencies: opts.deps}
	orchestrator := analysis.NewOrchestrator(newModel(cfg.LLM), cfg.Storage.MaxFileSize)

	input := analyzeInput{
		paths:        args,
		systemPrompt: prompt,
		apiKey:       apiKey,
		options:      contentOpts,
	}
	if len(args) == 0 {
		fetcher := newFetcher(cfg)
		input.fetch = func(ctx context.Context) ([]models.SourceFile, error) {
			log.Infof("📥 Fetching %s/%s", opts.repo, opts.path)
			return fetcher.Fetch(ctx, opts.repo, opts.path, opts.ref)
		}
	}

	result, files, err := input.run(ctx, orchestrator)
	if err != nil {
		return fmt.Errorf("%s: %w", analysis.UserMessage(err), err)
	}

	if opts.save {
		report := &models.Report{
			ID:        uuid.NewString(),
			CreatedAt: time.Now(),
			Files:     analysis.FileNames(files),
			Result:    *result,
		}
		if err := store.SaveReport(report); err != nil {
			log.Warnf("⚠️ Failed to save report: %v", err)
		} else {
			log.Infof("💾 Report %s saved", report.ID)
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(out, files, result)
	return nil
}

// analyzeInput is one CLI analysis: local paths, or a repository fetch when no paths are given
type analyzeInput struct {
	paths        []string
	fetch        func(ctx context.Context) ([]models.SourceFile, error)
	systemPrompt string
	apiKey       string
	options      llm.ContentOptions
}

// run checks the credential before touching files or the network
func (in analyzeInput) run(ctx context.Context, orchestrator *analysis.Orchestrator) (*models.AnalysisResult, []models.SourceFile, error) {
	if strings.TrimSpace(in.apiKey) == "" {
		return nil, nil, analysis.ErrMissingAPIKey
	}

	if len(in.paths) > 0 {
		sources := make([]analysis.FileSource, len(in.paths))
		for i, p := range in.paths {
			sources[i] = analysis.LocalFile{Path: p}
		}
		return orchestrator.Run(ctx, analysis.Request{
			Files:        sources,
			SystemPrompt: in.systemPrompt,
			APIKey:       in.apiKey,
			Options:      in.options,
		})
	}

	if in.fetch == nil {
		return nil, nil, analysis.ErrNoFiles
	}
	files, err := in.fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", analysis.ErrReadFiles, err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: repository path has no files", analysis.ErrReadFiles)
	}
	result, err := orchestrator.Analyze(ctx, files, in.systemPrompt, in.apiKey, in.options)
	if err != nil {
		return nil, files, err
	}
	return result, files, nil
}

func printReport(w io.Writer, files []models.SourceFile, result *models.AnalysisResult) {
	fmt.Fprintf(w, "Arquivos: %s\n", strings.Join(analysis.FileNames(files), ", "))
	fmt.Fprintf(w, "Nota de segurança: %.1f/10\n", result.Summary.SecurityScore)
	fmt.Fprintf(w, "Críticas: %d  Altas: %d  Médias: %d  Baixas: %d\n\n",
		result.Summary.Critical, result.Summary.High, result.Summary.Medium, result.Summary.Low)
	fmt.Fprintf(w, "%s\n", result.Summary.AISummary)

	for _, v := range result.Vulnerabilities {
		fmt.Fprintf(w, "\n[%s] %s\n  %s\n", v.Severity, v.Location, v.Description)
		if v.CVE != "" {
			fmt.Fprintf(w, "  CVE: %s\n", v.CVE)
		}
		fmt.Fprintf(w, "  Correção: %s\n", v.Remediation)
	}

	if len(result.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecomendações:")
		for _, r := range result.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
