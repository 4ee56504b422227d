package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/satyamitra/internal/logging"
	"github.com/ppiankov/satyamitra/internal/tool"
)

var (
	toolAddr     string
	toolToken    string
	toolEndpoint string
)

// toolCmd represents the tool command
var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Run the domain reputation tool server",
	Long: `Serve the domain reputation lookup as a callable tool:
  GET  /healthz
  GET  /v1/tools
  POST /v1/tools/check_domain_reputation   {"url": "..."}

Example:
  satyamitra tool --addr 127.0.0.1:7081 --token secret`,
	Args: cobra.NoArgs,
	RunE: runTool,
}

var toolCheckCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Query a running reputation tool server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		endpoint := toolEndpoint
		if endpoint == "" {
			endpoint = cfg.Tool.ListenAddr
		}
		token := toolToken
		if token == "" {
			token = cfg.Tool.AuthToken
		}

		client, err := tool.NewClient(tool.NewReputationTool(endpoint, token), 10*time.Second)
		if err != nil {
			return err
		}
		result, err := client.CheckReputation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolCmd)
	toolCmd.AddCommand(toolCheckCmd)

	toolCmd.PersistentFlags().StringVar(&toolToken, "token", "", "bearer token (overrides tool.auth_token)")
	toolCmd.Flags().StringVar(&toolAddr, "addr", "", "listen address (overrides tool.listen_addr)")
	toolCheckCmd.Flags().StringVar(&toolEndpoint, "endpoint", "", "tool server address (default: tool.listen_addr)")
}

func runTool(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if toolAddr != "" {
		cfg.Tool.ListenAddr = toolAddr
	}
	if toolToken != "" {
		cfg.Tool.AuthToken = toolToken
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newToolApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := tool.NewServer(tool.Config{
		ListenAddr: cfg.Tool.ListenAddr,
		AuthToken:  cfg.Tool.AuthToken,
		Logger:     logger,
	}, a.reputation)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
