// Command myve runs the personal-finance advisory core: an HTTP server
// (serve) or a one-shot question from the terminal (ask).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"myve/internal/advisory"
	"myve/internal/cache"
	"myve/internal/config"
	"myve/internal/fetch"
	"myve/internal/handlers"
	"myve/internal/router"
	"myve/internal/server"
	"myve/internal/snapshot"
	"myve/internal/store"
)

var (
	cfgPath string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "myve",
		Short:         "Personal-finance advisory core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newServeCmd(), newAskCmd())
	return root
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// core bundles everything a command needs to answer requests.
type core struct {
	router   *router.Router
	pipeline *snapshot.Pipeline
	provider *fetch.FileProvider
	cache    *cache.ResponseCache
	advice   *store.AdviceLog
	client   *advisory.GeminiClient
}

func (c *core) close(log *zap.Logger) {
	if c.advice != nil {
		if err := c.advice.Close(); err != nil {
			log.Warn("closing advice log", zap.Error(err))
		}
	}
	if err := c.client.Close(); err != nil {
		log.Warn("closing advisory client", zap.Error(err))
	}
}

func buildCore(ctx context.Context, cfg config.Config, log *zap.Logger, withStore bool) (*core, error) {
	client, err := advisory.NewGeminiClient(ctx, cfg.Advisory, log)
	if err != nil {
		return nil, fmt.Errorf("advisory client: %w", err)
	}

	provider := fetch.NewFileProvider(cfg.Data.Dir, log)
	pipeline := snapshot.New(provider, log)
	respCache := cache.New(cfg.CacheTTL(), cfg.Cache.MaxEntries, log)
	handlerSet := handlers.All(handlers.Deps{Advisory: client, Snapshots: pipeline, Log: log})

	var adviceLog *store.AdviceLog
	var recorder router.Recorder
	if withStore {
		adviceLog, err = store.Open(cfg.Store.Path, log)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("advice log: %w", err)
		}
		recorder = adviceLog
	}

	return &core{
		router:   router.New(client, handlerSet, respCache, recorder, log),
		pipeline: pipeline,
		provider: provider,
		cache:    respCache,
		advice:   adviceLog,
		client:   client,
	}, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the advisory HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := buildCore(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer c.close(log)

			watcher, err := fetch.NewWatcher(c.provider.Dir(), c.cache.InvalidateUser, log)
			if err != nil {
				log.Warn("data watcher unavailable, cached replies will expire by TTL only", zap.Error(err))
			} else {
				defer watcher.Close()
			}

			sched := cron.New()
			if _, err := sched.AddFunc("@every "+cfg.CacheSweepInterval().String(), func() {
				if dropped := c.cache.Sweep(); dropped > 0 {
					log.Debug("swept expired cache entries", zap.Int("entries", dropped))
				}
			}); err != nil {
				return fmt.Errorf("schedule cache sweep: %w", err)
			}
			if _, err := sched.AddFunc("@every 1h", func() {
				pruned, err := c.advice.Prune(context.Background(), cfg.StoreRetention())
				if err != nil {
					log.Warn("pruning advice log", zap.Error(err))
				} else if pruned > 0 {
					log.Info("pruned advice history", zap.Int64("entries", pruned))
				}
			}); err != nil {
				return fmt.Errorf("schedule advice prune: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: server.New(c.router, c.pipeline, c.advice, log).Handler(),
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", cfg.Server.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}
}

func newAskCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the advice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			c, err := buildCore(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer c.close(log)

			reply := c.router.HandleRequest(cmd.Context(), strings.Join(args, " "), userID)
			fmt.Println(reply.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to answer for")
	cmd.MarkFlagRequired("user")
	return cmd
}
