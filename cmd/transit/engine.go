package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/transit"
	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/pkg/adapters/file"
	"github.com/aretw0/transit/pkg/adapters/redis"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
	"github.com/aretw0/transit/pkg/persistence/middleware"
	"github.com/aretw0/transit/pkg/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const lockTTL = 10 * time.Second

func newLogger(v *viper.Viper) (*slog.Logger, error) {
	level, err := logging.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// newEngine builds an engine from the settings. The returned function
// releases the store connection.
func newEngine(ctx context.Context, v *viper.Viper, logger *slog.Logger, extra ...transit.Option) (*transit.Engine, func() error, error) {
	opts := []transit.Option{transit.WithLogger(logger)}
	closer := func() error { return nil }

	var store ports.ConfigurationStore
	redisAddr := v.GetString("redis")
	storeDir := v.GetString("store-dir")
	switch {
	case redisAddr != "" && storeDir != "":
		return nil, nil, errors.New("--redis and --store-dir are mutually exclusive")
	case redisAddr != "":
		rs := redis.New(redisAddr, "", 0, redis.WithTTL(v.GetDuration("redis-ttl")))
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", redisAddr, err)
		}
		store = rs
		opts = append(opts, transit.WithLocker(redis.NewLocker(rs.Client(), redis.DefaultPrefix), lockTTL))
		closer = rs.Close
		logger.Info("memoizing results in redis", "addr", redisAddr)
	case storeDir != "":
		store = file.New(storeDir)
		logger.Info("memoizing results on disk", "dir", storeDir)
	}

	if store != nil {
		mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
		if v.GetBool("read-only") {
			mws = append(mws, middleware.NewReadOnlyMiddleware())
		}
		opts = append(opts, transit.WithStore(middleware.Chain(store, mws...)))
	}

	eng, err := transit.New(append(opts, extra...)...)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return eng, closer, nil
}

// input is the configuration a command transitions.
type input struct {
	path     string
	platform string
}

func addInputFlags(cmd *cobra.Command, in *input) {
	cmd.Flags().StringVarP(&in.path, "input", "i", "", "configuration document (yaml or json); defaults when empty")
	cmd.Flags().StringVarP(&in.platform, "platform", "p", "", "execution platform label; none means no-op")
}

// configuration loads the document, if any, and overlays the options.
func (in input) configuration(opts []string) (*domain.Configuration, error) {
	if in.path == "" {
		return options.Parse(domain.FragmentKinds(), opts...)
	}
	base, err := options.Load(in.path)
	if err != nil {
		return nil, err
	}
	return options.Overlay(base, opts...)
}

func (in input) label() *domain.Label {
	if in.platform == "" {
		return nil
	}
	l := domain.Label(in.platform)
	return &l
}

func execute(cmd *cobra.Command, in input, args []string) (transit.Result, error) {
	logger, err := newLogger(settings)
	if err != nil {
		return transit.Result{}, err
	}
	cfg, err := in.configuration(args)
	if err != nil {
		return transit.Result{}, err
	}
	eng, closeStore, err := newEngine(cmd.Context(), settings, logger)
	if err != nil {
		return transit.Result{}, err
	}
	defer closeStore()

	return eng.Run(cmd.Context(), cfg, in.label(), logging.EventHandler(logger))
}
