package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jyang234/mull/internal/config"
	"github.com/jyang234/mull/internal/engine"
	"github.com/jyang234/mull/internal/notify"
	"github.com/jyang234/mull/internal/storage"
	"github.com/jyang234/mull/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Mull API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			store, err := storage.NewStore(cfg.Storage.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}

			gateway := notify.NewClient(cfg.Notify.BaseURL, cfg.Notify.APIKey)
			eng := engine.NewEngine(store, gateway)
			defer eng.Close()

			fmt.Printf("Starting Mull API at http://localhost%s\n", cfg.Server.Addr)
			server := web.NewServer(eng)
			return server.Run(cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "server address (overrides config)")

	return cmd
}
