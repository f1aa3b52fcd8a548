package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelkit/internal/checkpoint"
	"modelkit/internal/command"
	"modelkit/internal/config"
	"modelkit/internal/deploy"
	"modelkit/internal/httpapi"
	"modelkit/internal/model"
	"modelkit/internal/runtime"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the model command server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (.yaml/.json/.toml)")
	cmd.Flags().String("addr", "", "HTTP listen address, e.g. :8000")
	cmd.Flags().String("checkpoint", "", "Path to model weights handed to setup")
	cmd.Flags().String("checkpoint-dir", "", "Directory scanned for checkpoint files")
	cmd.Flags().Bool("parallel", false, "Allow concurrent handler invocations")
	cmd.Flags().Bool("strict-keys", false, "Reject request bodies carrying undeclared fields")
	cmd.Flags().Int("max-queue-depth", 0, "Queued invocations before backpressure (0=default)")
	cmd.Flags().Int("max-wait-seconds", 0, "Max wait for the invocation slot (0=default)")
	cmd.Flags().Int64("max-body-bytes", 0, "Max JSON request body size (0=default)")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error|off")
	cmd.Flags().String("deploy-manifest", "", "Deploy document echoed via /status")
	cmd.Flags().String("cors-origins", "", "Comma-separated CORS origins (enables CORS)")
	cmd.Flags().Float64("rate-rps", 0, "Per-client request rate limit (0=off)")
	cmd.Flags().Int("rate-burst", 0, "Per-client burst size")
	return cmd
}

// resolveConfig merges flag > env > file > default.
func resolveConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := config.FromEnv(&cfg); err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr, _ = f.GetString("addr")
	}
	if f.Changed("checkpoint") {
		cfg.Checkpoint, _ = f.GetString("checkpoint")
	}
	if f.Changed("checkpoint-dir") {
		cfg.CheckpointDir, _ = f.GetString("checkpoint-dir")
	}
	if f.Changed("parallel") {
		cfg.Parallel, _ = f.GetBool("parallel")
	}
	if f.Changed("strict-keys") {
		cfg.StrictKeys, _ = f.GetBool("strict-keys")
	}
	if f.Changed("max-queue-depth") {
		cfg.MaxQueueDepth, _ = f.GetInt("max-queue-depth")
	}
	if f.Changed("max-wait-seconds") {
		cfg.MaxWaitSeconds, _ = f.GetInt("max-wait-seconds")
	}
	if f.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, _ = f.GetInt64("max-body-bytes")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("deploy-manifest") {
		cfg.DeployManifest, _ = f.GetString("deploy-manifest")
	}
	if f.Changed("cors-origins") {
		s, _ := f.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(s)
		cfg.CORSEnabled = len(cfg.CORSOrigins) > 0
	}
	if f.Changed("rate-rps") {
		cfg.RateRPS, _ = f.GetFloat64("rate-rps")
	}
	if f.Changed("rate-burst") {
		cfg.RateBurst, _ = f.GetInt("rate-burst")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	// Registration phase: commands are immutable once setup freezes the registry.
	reg := command.NewRegistry()
	for _, spec := range model.Commands() {
		if err := reg.Register(spec); err != nil {
			return err
		}
	}

	rt := runtime.New(reg, runtime.Config{
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Serialize:     !cfg.Parallel,
		StrictKeys:    cfg.StrictKeys,
	})
	rt.SetLogger(logger)

	cp, err := checkpoint.Resolve(cfg.Checkpoint, cfg.CheckpointDir)
	if err != nil {
		return err
	}
	opts := runtime.Options{}
	if cp != "" {
		opts["checkpoint"] = cp
	}

	// Setup failure is fatal: the server never starts listening.
	if err := rt.Setup(context.Background(), model.Setup(), opts); err != nil {
		logger.Error().Err(err).Msg("model setup failed")
		return err
	}

	if cfg.DeployManifest != "" {
		m, err := deploy.Load(cfg.DeployManifest)
		if err != nil {
			return err
		}
		rt.SetDeployInfo(m.Summary())
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost}, []string{"Content-Type", "X-Log-Level"})
	httpapi.SetRateLimit(cfg.RateRPS, cfg.RateBurst)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(rt)}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("checkpoint", cp).Msg("modelkit listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	cancel()
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	case "off":
		lvl = zerolog.Disabled
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
