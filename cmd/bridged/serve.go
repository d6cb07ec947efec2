package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/bridge/pkg/bridge"
	"github.com/entrhq/bridge/pkg/config"
	"github.com/entrhq/bridge/pkg/logging"
	"github.com/entrhq/bridge/pkg/server"
	"github.com/entrhq/bridge/pkg/version"
)

var (
	flagConfig string
	flagListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagListen != "" {
			cfg.Server.ListenAddr = flagListen
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, _ := logging.NewLogger("main")
		defer logger.Close()
		for _, line := range version.Banner() {
			logger.Infof("%s", line)
		}

		hub := bridge.NewHub(
			bridge.WithStreamBuffer(cfg.Bridge.StreamBuffer),
			bridge.WithBacklogLimit(cfg.Bridge.BacklogLimit),
		)

		srv, err := server.New(cfg, hub)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Infof("serving on %s", cfg.Server.ListenAddr)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address override")
}
