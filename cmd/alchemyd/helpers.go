package main

import (
	"context"
	"errors"
	"os"

	"github.com/yegorpanin/alchemy/internal/config"
	"github.com/yegorpanin/alchemy/internal/engine"
	"github.com/yegorpanin/alchemy/internal/logger"
	"github.com/yegorpanin/alchemy/internal/resolver"
	"github.com/yegorpanin/alchemy/internal/store"
	"github.com/yegorpanin/alchemy/internal/vocab"
)

// mustLoadConfig loads and validates the configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadVocabulary loads the words list and vector file, exits on error.
// A vocabulary that fails to load is unusable, there is no degraded mode.
func mustLoadVocabulary(cfg *config.Config) *vocab.Store {
	v, err := vocab.Load(cfg.Vocabulary.Words, cfg.Vocabulary.Vectors)
	if err != nil {
		exitWithError(ExitDataError, "loading vocabulary: %v", err)
	}
	return v
}

// mustNewResolver builds the resolver with the configured scan depth and
// optional blocklist, exits on error.
func mustNewResolver(cfg *config.Config, v *vocab.Store) *resolver.Resolver {
	opts := []resolver.Option{resolver.WithScanDepth(cfg.Resolver.ScanDepth)}
	if cfg.Vocabulary.Blocklist != "" {
		blocked, err := resolver.LoadBlocklist(cfg.Vocabulary.Blocklist)
		if err != nil {
			exitWithError(ExitDataError, "loading blocklist: %v", err)
		}
		opts = append(opts, resolver.WithBlocklist(blocked))
	}
	return resolver.New(v, opts...)
}

// mustOpenStore opens the configured shared store, exits on error.
func mustOpenStore(ctx context.Context, cfg *config.Config) store.Store {
	s, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Address, cfg.Store.Namespace)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			exitWithError(ExitStoreError, "opening store: %v", err)
		}
		exitWithError(ExitConfigError, "opening store: %v", err)
	}
	return s
}

// mustNewEngine wires vocabulary, resolver and store into an engine.
func mustNewEngine(ctx context.Context, cfg *config.Config, log *logger.Logger) (*engine.Engine, store.Store) {
	v := mustLoadVocabulary(cfg)
	r := mustNewResolver(cfg, v)
	s := mustOpenStore(ctx, cfg)
	return engine.New(v, r, s, log), s
}

// mustNewLogger builds the configured logger, exits on error.
func mustNewLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		exitWithError(ExitConfigError, "building logger: %v", err)
	}
	return log
}

// quietLogger returns a logger for one-shot query commands, where engine
// diagnostics would pollute the JSON output stream.
func quietLogger() *logger.Logger {
	if os.Getenv("ALCHEMY_DEBUG") != "" {
		l, err := logger.New("dev")
		if err == nil {
			return l
		}
	}
	return logger.NewNop()
}
