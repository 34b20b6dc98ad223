package cmd

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sblp/sblpd/internal/bump"
	"github.com/sblp/sblpd/internal/bus"
	"github.com/sblp/sblpd/internal/config"
	errwrap "github.com/sblp/sblpd/internal/errors"
	"github.com/sblp/sblpd/internal/observability"
	"github.com/sblp/sblpd/internal/resolver"
	"github.com/sblp/sblpd/internal/server"
	"github.com/sblp/sblpd/internal/server/handlers"
	servermw "github.com/sblp/sblpd/internal/server/middleware"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// listenerHealthChecker reports unhealthy unless the bump listener is running
type listenerHealthChecker struct {
	client *bump.Client
}

func (l listenerHealthChecker) CheckHealth(ctx context.Context) error {
	if state := l.client.State(); state != bump.StateRunning {
		return errwrap.NewInternalError("bump listener is " + state.String())
	}
	return nil
}

// busHealthChecker verifies the event bus still has someone listening when
// bus delivery is the active notifier.
type busHealthChecker struct {
	bus *bus.Bus
}

func (b busHealthChecker) CheckHealth(ctx context.Context) error {
	if b.bus.HandlerCount() == 0 {
		return errwrap.NewInternalError("no bump event subscribers registered")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SBLP bump listener",
	Long: `Start the HTTP listener for inbound SBLP bump notifications with
graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (cooldown changes require a restart)

On shutdown the listener drains in-flight bump requests and flushes logs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Invalid configuration", err)
		}

		observability.InitServerLogger("sblpd", cfg.Logging.Level)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics("sblpd", cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		logger.Info("Initializing bump listener",
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Duration("cooldown", cfg.Bump.Cooldown),
			zap.Bool("auth_enabled", cfg.Auth.Token != ""),
			zap.Int("metrics_port", cfg.Metrics.Port))

		// Core pipeline: bus delivery, cooldown gate, mapper
		eventBus := bus.NewBus()
		defer eventBus.Close()

		gate := bump.NewGate(cfg.Bump.Cooldown)
		mapper := &bump.Mapper{}

		// Optional entity resolution through the host bot's gateway session
		session := openDiscordSession(cfg)
		if session != nil {
			mapper.Resolver = resolver.NewDiscordResolver(session)
			defer func() {
				if err := session.Close(); err != nil {
					logger.Warn("Failed to close gateway session", zap.Error(err))
				}
			}()
		}

		// The standalone daemon always delivers over the bus; embedding callers
		// register a handler function instead.
		eventBus.Subscribe(bump.EventRequestStart, func(e bus.Event) {
			req, _ := e.Payload.(bump.MappedBumpRequest)
			logger.Info("Bump received",
				zap.Int64("guild", req.Guild),
				zap.Int64("channel", req.Channel),
				zap.Int64("user", req.User))
		})

		svc := &handlers.BumpService{
			Mapper:   mapper,
			Gate:     gate,
			Notifier: &bump.BusNotifier{Bus: eventBus, Source: "sblpd"},
			Bus:      eventBus,
			BotName:  cfg.Bump.BotName,
		}

		// The factory runs at InitServer time, after the client exists, so the
		// closure can hand the client to the status endpoint as state reporter.
		var client *bump.Client
		client = bump.NewClient(func(port int) bump.Listener {
			return server.New(server.Options{
				Host:      cfg.Server.Host,
				Port:      port,
				AuthToken: cfg.Auth.Token,
				FloodGuard: servermw.FloodGuardOptions{
					RPS:                cfg.FloodGuard.RPS,
					Burst:              cfg.FloodGuard.Burst,
					TrustXForwardedFor: cfg.FloodGuard.TrustXForwardedFor,
					RetryAfterSeconds:  cfg.FloodGuard.RetryAfterSeconds,
				},
				Bump:         svc,
				State:        client,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			})
		})
		client.ShutdownTimeout = cfg.Server.ShutdownTimeout

		// Initialize health manager
		if cfg.Health.Enabled {
			handlers.InitHealthManager(versionInfo.Version)
			hm := handlers.GetHealthManager()
			hm.RegisterChecker("listener", listenerHealthChecker{client: client})
			hm.RegisterChecker("event_bus", busHealthChecker{bus: eventBus})
			if cfg.Metrics.Enabled {
				hm.RegisterChecker("telemetry", telemetryHealthChecker{})
			}
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		// Handler 2: Stop the bump listener (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Stopping bump listener...")
			if err := client.StopServer(); err != nil {
				return errwrap.WrapInternal(ctx, err, "listener shutdown failed")
			}
			logger.Info("Bump listener stopped gracefully",
				zap.Int("outstanding_tasks", client.TaskCount()))
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			logger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		// Bring the listener up through its lifecycle manager
		if err := client.InitServer(cfg.Server.Port); err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "listener initialization failed")
		}
		if err := client.StartServer(); err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "listener start failed")
		}

		logger.Info("Bump listener running",
			zap.Int("port", client.Port()),
			zap.String("state", client.State().String()))

		// Block on the signal listener; shutdown handlers stop the client
		errChan := make(chan error, 1)
		go func() {
			errChan <- signals.Listen(cmd.Context())
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "signal handler error")
		}

		return nil
	},
}

// openDiscordSession connects to the gateway when a bot token is configured.
// Resolution is best effort; failures degrade to snowflake-only bumps.
func openDiscordSession(cfg *config.Config) *discordgo.Session {
	logger := observability.ServerLogger

	if cfg.Discord.Token == "" {
		return nil
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Warn("Failed to create gateway session, entity resolution disabled",
			zap.Error(err))
		return nil
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	session.StateEnabled = true

	if err := session.Open(); err != nil {
		logger.Warn("Failed to open gateway session, entity resolution disabled",
			zap.Error(err))
		return nil
	}

	logger.Info("Gateway session opened for entity resolution")
	return session
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
