package main

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yegorpanin/alchemy/internal/engine"
	"github.com/yegorpanin/alchemy/internal/server"
)

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the combination engine HTTP service",
	Long: `Start the HTTP service that bot front-end replicas call.

The service loads the vocabulary once at startup and fails fast if the
words list and vector file disagree. The shared store must be reachable
at startup; transient store failures during operation are retried.

Examples:
  alchemyd serve
  alchemyd serve --listen :9090
  ALCHEMY_STORE_BACKEND=sqlite ALCHEMY_STORE_ADDR=alchemy.db alchemyd serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustNewLogger(cfg)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v := mustLoadVocabulary(cfg)
	r := mustNewResolver(cfg, v)
	st := mustOpenStore(ctx, cfg)
	defer st.Close()

	eng := engine.New(v, r, st, log)
	srv := server.New(eng, r, log, server.Options{
		Rate:  cfg.Server.Rate,
		Burst: cfg.Server.Burst,
	})

	listen := cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	if err := srv.Run(ctx, listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("shut down")
	return nil
}
