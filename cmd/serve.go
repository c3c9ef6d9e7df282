package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/BetterCallFirewall/Sentinel/internal/app"
	"github.com/BetterCallFirewall/Sentinel/internal/web"
	"github.com/BetterCallFirewall/Sentinel/internal/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if listenAddr != "" {
				cfg.Web.ListenAddr = listenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openStore(cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			hub := websocket.NewHub()
			go hub.Run(ctx)

			model := newModel(cfg.LLM)
			controller, err := app.NewController(ctx, store, model, app.Options{
				FallbackAPIKey: cfg.LLM.ApiKey,
				MaxFileSize:    cfg.Storage.MaxFileSize,
			})
			if err != nil {
				return err
			}
			controller.SetNotifier(hub)

			fetcher := newFetcher(cfg)

			server, err := web.NewServer(cfg, controller, hub, fetcher)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			log.Infof("✅ Sentinel AI started (model %s)", model.Model())

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				log.Info("🔄 Shutting down...")
			}

			if err := server.Stop(context.Background()); err != nil {
				log.Warnf("⚠️ Server shutdown: %v", err)
			}
			controller.Wait()
			log.Info("✅ Stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
