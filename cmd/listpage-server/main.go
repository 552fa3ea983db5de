// Command listpage-server serves paged lists from an HTTP upstream and keeps
// their view state in Redis.
//
// A host drives each list with lifecycle requests (load, refresh,
// reach-bottom, active list switches) and reads the pushed view state from
// Redis or from GET /lists/{name}.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Sternrassler/listpage/pkg/httpfetch"
	"github.com/Sternrassler/listpage/pkg/listpage"
	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/Sternrassler/listpage/pkg/viewstate"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: "Serves paged lists and pushes their view state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			logger := logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.LogPretty,
				Output: os.Stderr,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}
	registerFlags(cmd.Flags())
	return cmd
}

// run wires the view state store, upstream fetchers and registry, then
// serves HTTP until ctx is done.
func run(ctx context.Context, cfg serverConfig, logger zerolog.Logger) error {
	sink, ready, closeSink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	registry, err := buildRegistry(cfg, sink, logger)
	if err != nil {
		return err
	}
	if err := registry.OnLaunch(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	srv := &server{
		registry: registry,
		ready:    ready,
		logger:   logger.With().Str(logging.FieldComponent, "server").Logger(),
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Strs("lists", cfg.Lists).
			Str("upstream", cfg.UpstreamURL).
			Msg("Starting listpage server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openSink connects to Redis, or falls back to an in-memory sink when no
// Redis address is configured.
func openSink(ctx context.Context, cfg serverConfig, logger zerolog.Logger) (viewstate.Sink, func(context.Context) error, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn().Msg("No Redis address configured, view state is kept in memory")
		return viewstate.NewMemorySink(0), func(context.Context) error { return nil }, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info().Str("redis", cfg.RedisAddr).Msg("Connected to Redis")

	redisCfg := viewstate.DefaultRedisConfig()
	redisCfg.TTL = cfg.RedisTTL

	ready := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	return viewstate.NewRedisSink(redisClient, redisCfg), ready, closeFn, nil
}

// buildRegistry creates one upstream fetcher per list, served at
// <upstream.url>/<name>.
func buildRegistry(cfg serverConfig, sink viewstate.Sink, logger zerolog.Logger) (*listpage.Registry[json.RawMessage], error) {
	lists := make([]listpage.ListConfig[json.RawMessage], 0, len(cfg.Lists))
	for _, name := range cfg.Lists {
		endpoint, err := url.JoinPath(cfg.UpstreamURL, name)
		if err != nil {
			return nil, fmt.Errorf("upstream url for %q: %w", name, err)
		}

		fetchCfg := httpfetch.DefaultConfig(endpoint, cfg.UserAgent)
		fetchCfg.RequestsPerSecond = cfg.UpstreamRPS
		fetchCfg.Logger = &logger

		fetcher, err := httpfetch.New[json.RawMessage](fetchCfg)
		if err != nil {
			return nil, fmt.Errorf("create fetcher for %q: %w", name, err)
		}

		lists = append(lists, listpage.ListConfig[json.RawMessage]{
			Name:     name,
			PageSize: cfg.PageSize,
			Fetch:    fetcher.Fetch,
		})
	}

	return listpage.New(listpage.Config[json.RawMessage]{
		Lists:                 lists,
		Sink:                  sink,
		EnablePullDownRefresh: cfg.EnableRefresh,
		EnableReachBottom:     cfg.EnableReachBottom,
		StopPullDownRefresh: func() {
			logger.Debug().Msg("Pull-down refresh finished")
		},
		Logger: &logger,
	})
}
