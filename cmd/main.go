// Mixergy-bridge keeps a live model of a Mixergy smart hot water tank and
// exposes it over a local HTTP/WebSocket API, Prometheus metrics and,
// optionally, MQTT.
//
// Usage:
//
//	mixergy-bridge [command] [flags]
//
// Running without arguments starts the bridge (same as 'serve').
//
// @title                       Mixergy Bridge API
// @version                     1.0
// @description                 Local control and monitoring API for a Mixergy smart hot water tank.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "mixergy_bridge/docs"
	"mixergy_bridge/internal/bus"
	"mixergy_bridge/internal/config"
	"mixergy_bridge/internal/handlers"
	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/metrics"
	"mixergy_bridge/internal/server"
	"mixergy_bridge/internal/service"
	"mixergy_bridge/internal/tank"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 10 * time.Second

var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mixergy-bridge",
	Short: "Bridge a Mixergy hot water tank to a local API",
	Long: `Keeps a cached model of one Mixergy tank, fed by REST polling and the
STOMP push channel, and serves it over HTTP, WebSocket and Prometheus.
Charge changes are published as events, locally and optionally to MQTT.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge",
	RunE:  runServe,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default configs/config.yml)")

	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config and builds the process logger from it.
func loadConfig() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(config.New(configFile))
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.Get(cfg.Log.Level), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTank(); err != nil {
		return err
	}

	// event fan-out: in-process bus, plus MQTT when enabled
	events := bus.New(log)
	sinks := bus.Multi{events}
	if cfg.MQTT.Enabled {
		mq, err := bus.DialMQTT(cfg.BusConfig(), log)
		if err != nil {
			return err
		}
		defer mq.Close()
		sinks = append(sinks, mq)
	}

	rec := metrics.New()

	tc := cfg.TankConfig(log)
	tc.Events = sinks
	tc.Metrics = rec
	client := tank.NewClient(tc)
	client.Register(rec.Observer(client))

	services, err := service.NewService(client, service.Options{
		Auth: service.AuthOptions{
			Username:     cfg.Auth.Username,
			PasswordHash: cfg.Auth.PasswordHash,
			SigningKey:   cfg.Auth.SigningKey,
			TokenTTL:     cfg.Auth.TokenTTL,
		},
		PushEnabled: cfg.Mixergy.PushEnabled,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	if cfg.Auth.PasswordHash == "" {
		log.Warnw("auth.password_hash not set; control API sign-in is disabled")
	}

	apiHandler := handlers.NewHandler(services, log,
		handlers.WithUpdates(client),
		handlers.WithEvents(events),
		handlers.WithMetrics(rec.Handler()),
	)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		services.Sync.Run(ctx, cfg.Mixergy.PollInterval)
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, log)
	<-syncDone
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
