package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/guiyumin/transmote/internal/access"
	"github.com/guiyumin/transmote/internal/bot"
	"github.com/guiyumin/transmote/internal/config"
	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/metrics"
	"github.com/guiyumin/transmote/internal/ops"
	"github.com/guiyumin/transmote/internal/poller"
	"github.com/guiyumin/transmote/internal/registry"
	"github.com/guiyumin/transmote/internal/session"
	"github.com/guiyumin/transmote/internal/telegram"
	"github.com/guiyumin/transmote/internal/transmission"
	"github.com/guiyumin/transmote/internal/version"
)

var serveJSONLogs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Run the Telegram bot, the completion notifier, and (if OPS_LISTEN
is set) the ops HTTP server.

Configuration comes from the environment:
  TELEGRAM_TOKEN                  bot token (required)
  WHITELIST                       comma-separated Telegram user ids (required)
  TRANSMISSION_HOST/PORT/...      single daemon
  TRANSMISSION_ENDPOINTS          JSON list of daemons
  TRANSMISSION_ENDPOINTS_FILE     YAML list of daemons
  NOTIFICATIONS_ENABLED           completion notifications (default true)
  NOTIFICATION_CHECK_INTERVAL_SEC poll interval (default 10)
  OPS_LISTEN                      ops HTTP listen address (default off)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", false, "emit JSON logs instead of console output")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	if !serveJSONLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	reg, err := registry.New(cfg.Endpoints)
	if err != nil {
		return err
	}

	engines := make(map[string]engine.Engine, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		client := transmission.New(transmission.Config{
			Host:     ep.Host,
			Port:     ep.Port,
			Username: ep.Username,
			Password: ep.Password,
			HTTPS:    ep.HTTPS,
		})
		engines[ep.Name] = engine.New(ep.Name, client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := telegram.NewGateway(ctx, cfg.Token)
	if err != nil {
		return err
	}

	guard := access.New(cfg.Whitelist)
	sessions := session.NewStore(reg.Default().Name)
	b := bot.New(gw, reg, engines, guard, sessions)
	p := poller.New(engines, gw, guard.Users(), cfg.CheckInterval, cfg.NotificationsEnabled)

	promReg := prometheus.NewRegistry()
	metrics.Register(promReg)

	var opsServer *ops.Server
	if cfg.OpsListen != "" {
		opsServer = ops.NewServer(cfg.OpsListen, engines, promReg)
		go func() {
			if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops server failed")
			}
		}()
	}

	log.Info().
		Str("version", version.Version).
		Int("endpoints", reg.Len()).
		Int("users", len(cfg.Whitelist)).
		Bool("notifications", cfg.NotificationsEnabled).
		Msg("transmote starting")

	go p.Run(ctx)
	b.Run(ctx, gw.Events(ctx))

	// Context is cancelled; give the ops server a moment to drain.
	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown")
		}
	}

	log.Info().Msg("transmote stopped")
	return nil
}
