package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateKeyCmd(root *rootOptions) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "validate-key",
		Short: "Check that the API key is accepted by the model provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg

			store, err := openStore(cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			key, err := resolveAPIKey(apiKey, store, cfg.LLM.ApiKey)
			if err != nil {
				return err
			}
			if key == "" {
				return errors.New("no api key configured")
			}

			if !newModel(cfg.LLM).ValidateKey(cmd.Context(), key) {
				return errors.New("api key was rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ API key is valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "key to check (default: stored key, then config)")
	return cmd
}
