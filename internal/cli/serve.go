package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/satyamitra/internal/logging"
	"github.com/ppiankov/satyamitra/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification API",
	Long: `Serve the HTTP API:
  POST /verify         NDJSON stream of step events and the final report
  POST /whatsapp       Twilio webhook, TwiML reply
  GET  /analytics      aggregated verification history
  POST /audit/delete   admin-only history deletion
  GET  /reputation     domain reputation sentence
  GET  /graph          workflow graph (Graphviz DOT)
  GET  /healthz, /metrics

Example:
  satyamitra serve --addr :8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.ListenAddr = serveAddr
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := server.New(cfg.Server, a.pipeline, a.store, a.reputation,
		server.WithLogger(logger),
		server.WithMetrics(a.metrics.Handler(), a.metrics),
	)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	return srv.Start(ctx)
}
