package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/topicradar/config"
	"github.com/mohammad-safakhou/topicradar/internal/research"
	srv "github.com/mohammad-safakhou/topicradar/internal/server"
	"github.com/mohammad-safakhou/topicradar/internal/store"
	"github.com/mohammad-safakhou/topicradar/internal/telemetry"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the radar HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			storeLogger := log.New(log.Writer(), "[STORE] ", log.LstdFlags)
			st, err := store.New(cfg.Storage.SQLitePath, storeLogger)
			if err != nil {
				return err
			}
			defer st.Close()

			provider := research.NewAnthropicClient(research.AnthropicConfig{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				ResearchModel:  cfg.LLM.ResearchModel,
				StructureModel: cfg.LLM.StructureModel,
				MaxTokens:      cfg.LLM.MaxTokens,
				MaxWebSearches: cfg.LLM.MaxWebSearches,
				MaxSources:     cfg.Search.MaxSources,
				Timeout:        cfg.LLM.Timeout,
			})

			metrics := telemetry.New(prometheus.DefaultRegisterer)
			orchLogger := log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags)
			orch := research.NewOrchestrator(
				provider, st, metrics, orchLogger,
				cfg.LLM.Timeout, uint64(cfg.LLM.MaxRetries), cfg.Search.MaxResults,
			)

			httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
			server := srv.New(cfg.Server, orch, st, httpLogger)

			errCh := make(chan error, 1)
			go func() {
				httpLogger.Printf("listening on %s", cfg.Server.Address)
				if err := server.Start(cfg.Server.Address); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				httpLogger.Printf("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	return serve
}
