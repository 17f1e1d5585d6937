package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jyang234/mull/internal/config"
	"github.com/jyang234/mull/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the task database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := storage.NewStore(cfg.Storage.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer store.Close()

			fmt.Printf("Schema up to date: %s\n", cfg.Storage.DBPath)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Mull configuration and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("Mull Status")
			fmt.Println("===========")
			fmt.Printf("Config:  %s\n", config.GlobalConfigPath())
			fmt.Printf("Server:  %s\n", cfg.Server.Addr)
			fmt.Printf("Gateway: %s\n", cfg.Notify.BaseURL)

			dbPath := cfg.Storage.DBPath
			if strings.HasPrefix(dbPath, "~") {
				if home, err := os.UserHomeDir(); err == nil {
					dbPath = filepath.Join(home, dbPath[1:])
				}
			}
			if _, err := os.Stat(dbPath); err == nil {
				fmt.Printf("DB:      %s (present)\n", dbPath)
			} else {
				fmt.Printf("DB:      %s (missing, run 'mull migrate')\n", dbPath)
			}
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GlobalConfigPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists: %s", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}
