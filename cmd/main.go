package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BetterCallFirewall/Sentinel/internal/config"
	"github.com/BetterCallFirewall/Sentinel/internal/github"
	"github.com/BetterCallFirewall/Sentinel/internal/llm"
	"github.com/BetterCallFirewall/Sentinel/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// maxRepoFiles bounds a repository fetch
const maxRepoFiles = 200

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "sentinel",
		Short:        "Sentinel AI: source code security analysis with Gemini",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			if err := setupLogging(cfg.Log); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default $"+config.ConfigFileEnv+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts), newAnalyzeCmd(opts), newValidateKeyCmd(opts))
	return cmd
}

func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

// openStore opens the SQLite store, or a memory store when no database path is configured
func openStore(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.DBPath == "" {
		log.Warn("⚠️ No database path configured, settings and reports are kept in memory")
		return storage.NewMemoryStorage(), nil
	}
	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Infof("💾 Using database %s", cfg.DBPath)
	return store, nil
}

func newModel(cfg config.LLMConfig) *llm.Client {
	return llm.NewClient(llm.NewAppFactory(cfg), llm.ModelName(cfg))
}

func newFetcher(cfg *config.Config) *github.Fetcher {
	return &github.Fetcher{
		Token:      cfg.GitHub.Token,
		HTTPClient: github.NewHTTPClient(github.HTTPClientConfig{}),
		Options: github.FetchOptions{
			MaxFiles:    maxRepoFiles,
			MaxFileSize: cfg.Storage.MaxFileSize,
		},
	}
}

// resolveAPIKey picks the flag value, then the stored credential, then the configured fallback
func resolveAPIKey(flag string, store storage.Store, fallback string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	key, err := store.GetSetting(storage.KeyAPIKey)
	switch {
	case err == nil && key != "":
		return key, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("failed to load api key: %w", err)
	}
	return fallback, nil
}
