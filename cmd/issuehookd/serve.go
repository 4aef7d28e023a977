package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	issuemetrics "github.com/goliatone/go-issue-metrics"
	"github.com/goliatone/go-issue-metrics/adapters/gocommand"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/spf13/cobra"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var httpAddr string
	var migrate bool
	var catalogCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook ingestion server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := resolveConfig(ctx, flags)
			if err != nil {
				return err
			}
			logger := newLogger(flags.logLevel, cfg.ServiceName)

			client, provider, cleanup, err := openStores(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if migrate {
				if err := applyMigrations(ctx, client, flags); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}
			}

			if catalogCache {
				cacheService, err := repositorycache.NewCacheService(repositorycache.DefaultConfig())
				if err != nil {
					return fmt.Errorf("new catalog cache: %w", err)
				}
				if _, err := provider.WithCatalogCache(cacheService); err != nil {
					return fmt.Errorf("enable catalog cache: %w", err)
				}
			}

			svc, err := issuemetrics.Setup(cfg, provider, issuemetrics.WithLogger(logger))
			if err != nil {
				return err
			}

			// Expose the handlers on the in-process command bus as well.
			bus := gocommand.NewRegistryAdapter(nil)
			subs, err := gocommand.RegisterPipeline(bus, gocommand.PipelineHandlers{
				ProcessNotification: svc.Commands().ProcessNotification,
				RefreshDailyTotals:  svc.Commands().RefreshDailyTotals,
				GetIssue:            svc.Queries().GetIssue,
				IssueTimeline:       svc.Queries().IssueTimeline,
				ListDailyTotals:     svc.Queries().ListDailyTotals,
			})
			if err != nil {
				return fmt.Errorf("register command bus: %w", err)
			}
			defer subs.Unsubscribe()
			if err := bus.Initialize(); err != nil {
				return fmt.Errorf("initialize command bus: %w", err)
			}

			mux := http.NewServeMux()
			mux.Handle("/webhooks/issues", svc.HTTPHandler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			addr := envOrFlag(httpAddr, "HTTP_ADDR", ":8080")
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("webhook server listening", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "listen address for the webhook server")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	cmd.Flags().BoolVar(&catalogCache, "catalog-cache", false, "cache label and milestone name lookups")
	return cmd
}
