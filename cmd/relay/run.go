package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/consent"
	"mercator-hq/relay/pkg/ledger/storage"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/openai"
	"mercator-hq/relay/pkg/security/auth"
	"mercator-hq/relay/pkg/security/secrets"
	rtls "mercator-hq/relay/pkg/security/tls"
	"mercator-hq/relay/pkg/server"
	"mercator-hq/relay/pkg/session"
	"mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/transport/telegram"
	"mercator-hq/relay/pkg/transport/webhook"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay",
	Long: `Start the relay with the specified configuration.

The configured transport receives messages; the HTTP server serves /health,
/ready, /metrics and, for the http transport or when a webhook token is set,
POST /v1/messages.

Examples:
  # Start from environment variables
  TELEGRAM_TOKEN=... OPENAI_TOKEN=... relay run

  # Start with a config file
  relay run --config /etc/relay/relay.yaml

  # Validate config without starting
  relay run --config relay.yaml --dry-run`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runRelay(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	secretManager, closeSecrets, err := newSecretManager(&cfg.Secrets)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	defer closeSecrets()

	if err := config.ResolveSecrets(ctx, cfg, secretManager); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	logger.Info("starting relay",
		"version", Version,
		"transport", cfg.Transport.Kind,
		"gate_scope", cfg.Gate.Scope,
		"window_size", cfg.Session.WindowSize,
		"ledger_driver", cfg.Ledger.Driver,
	)

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Telemetry.Tracing.Enabled,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		Insecure:       cfg.Telemetry.Tracing.Insecure,
		ServiceName:    cfg.Telemetry.Tracing.ServiceName,
		ServiceVersion: Version,
		SampleRatio:    cfg.Telemetry.Tracing.SampleRatio,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	store, sqliteStore, err := openStore(&cfg.Ledger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()

	var (
		sessionObserver session.Observer
		gateObserver    consent.Observer
		collector       *metrics.Collector
	)
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{Namespace: cfg.Telemetry.Metrics.Namespace}, nil)
		sessionObserver, gateObserver = collector, collector
	}

	scope, err := consent.ParseScope(cfg.Gate.Scope)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	gate := consent.New(consent.Config{Scope: scope, Store: store, Observer: gateObserver})

	provider, err := openai.NewProvider(providers.ProviderConfig{
		Name:        cfg.Provider.Name,
		BaseURL:     cfg.Provider.BaseURL,
		Credentials: secretManager.Credential(cfg.Provider.APIKey),
		Timeout:     cfg.Provider.Timeout,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	defer provider.Close()

	if collector != nil {
		if err := collector.WatchProvider(provider); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	assembler, err := session.NewAssembler(personaFromConfig(&cfg.Persona))
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	invoker := session.NewInvoker(provider, session.InvokerConfig{
		Model:     cfg.Provider.Model,
		MaxTokens: cfg.Provider.MaxTokens,
		Timeout:   cfg.Session.CompletionTimeout,
	})

	coordinator, err := session.NewCoordinator(session.Config{
		WindowSize:         cfg.Session.WindowSize,
		BusyPolicy:         session.BusyPolicy(cfg.Session.BusyPolicy),
		LedgerWriteTimeout: cfg.Ledger.WriteTimeout,
		Replies:            session.Replies{Failure: cfg.Session.FailureReply},
		Observer:           sessionObserver,
		Tracer:             tracer.Tracer("mercator-hq/relay/pkg/session"),
	}, gate, assembler, invoker, store)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	checker := health.New(0)
	checker.RegisterCheck("ledger", health.PingCheck(store))
	checker.RegisterCheck("provider", health.ProviderCheck(provider))

	mux := http.NewServeMux()
	health.Register(mux, checker, Version, GitCommit, BuildDate)
	if collector != nil {
		mux.Handle("GET "+cfg.Telemetry.Metrics.Path, collector.Handler())
	}
	if cfg.Transport.Kind == config.TransportHTTP || cfg.Server.WebhookToken != "" {
		var h http.Handler = webhook.New(webhook.Config{
			MaxBodyBytes:        cfg.Server.MaxBodyBytes,
			UnknownCommandReply: cfg.Transport.UnknownCommandReply,
			BusyReply:           cfg.Transport.BusyReply,
		}, coordinator)
		if cfg.Server.WebhookToken != "" {
			validator := auth.NewTokenValidator(secretManager.Credential(cfg.Server.WebhookToken))
			h = auth.NewMiddleware(validator, nil).Handle(h)
		} else {
			logger.Warn("webhook endpoint has no token; restrict server.listen_address")
		}
		mux.Handle("POST "+webhook.Path, tracing.HTTPMiddleware(tracer.Tracer("mercator-hq/relay/pkg/transport/webhook"), h))
	}

	serverCfg := server.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if cfg.Server.TLS.Enabled {
		reloader, err := rtls.NewReloader(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		if err != nil {
			return cli.NewConfigError(cfgFile, err)
		}
		if err := reloader.Watch(); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer reloader.Close()

		serverCfg.TLS, err = rtls.ServerConfig(reloader, cfg.Server.TLS.MinVersion)
		if err != nil {
			return cli.NewConfigError(cfgFile, err)
		}
	}
	srv := server.New(serverCfg, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if cfg.Transport.Kind == config.TransportTelegram {
		bot, err := telegram.New(telegram.Config{
			Token:               cfg.Transport.Token,
			PollTimeout:         cfg.Transport.PollTimeout,
			UnknownCommandReply: cfg.Transport.UnknownCommandReply,
			BusyReply:           cfg.Transport.BusyReply,
			RejectWhileBusy:     session.BusyPolicy(cfg.Session.BusyPolicy) == session.BusyReject,
			Debug:               cfg.Transport.Debug,
		}, coordinator)
		if err != nil {
			stop()
			_ = g.Wait()
			return cli.NewCommandError("run", err)
		}
		g.Go(func() error { return bot.Run(gctx) })
	}

	if sqliteStore != nil && cfg.Ledger.WALMode {
		checkpointer := storage.NewCheckpointer(sqliteStore, cfg.Ledger.CheckpointSchedule)
		if err := checkpointer.Start(gctx); err != nil {
			logger.Warn("failed to start checkpoint scheduler", "error", err)
		} else {
			defer checkpointer.Stop()
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("run", err)
	}
	logger.Info("relay stopped")
	return nil
}

// newSecretManager builds the secret manager from the environment provider
// and, when configured, the file provider. The returned func closes the
// file watcher.
func newSecretManager(cfg *config.SecretsConfig) (*secrets.Manager, func(), error) {
	list := []secrets.SecretProvider{secrets.NewEnvProvider(cfg.EnvPrefix)}
	closer := func() {}

	if cfg.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Dir, cfg.Watch)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, fp)
		closer = func() {
			if err := fp.Close(); err != nil {
				slog.Warn("failed to close secret watcher", "error", err)
			}
		}
	}

	manager := secrets.NewManager(list, secrets.CacheConfig{
		Enabled: cfg.CacheTTL > 0,
		TTL:     cfg.CacheTTL,
		MaxSize: 64,
	})
	return manager, closer, nil
}

// personaFromConfig maps the persona section onto the assembler's persona.
func personaFromConfig(cfg *config.PersonaConfig) session.Persona {
	p := session.Persona{Directive: cfg.Directive}

	switch {
	case cfg.NoExamples:
		p.Examples = []session.Example{}
	case len(cfg.Examples) > 0:
		for _, ex := range cfg.Examples {
			p.Examples = append(p.Examples, session.Example{User: ex.User, Assistant: ex.Assistant})
		}
	}

	for _, line := range strings.Split(cfg.Links, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			p.Links = append(p.Links, line)
		}
	}
	return p
}
