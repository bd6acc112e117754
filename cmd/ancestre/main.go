package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/TheFirstGuy/AncestrE/internal/config"
	"github.com/TheFirstGuy/AncestrE/internal/service"
	"github.com/TheFirstGuy/AncestrE/internal/storage/famfile"
	"github.com/TheFirstGuy/AncestrE/internal/storage/sqlite"
	"github.com/TheFirstGuy/AncestrE/pkg/logging"
)

var (
	configPath string
	familyFile string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "ancestre",
		Short: "Edit family trees stored as .fam/.rel files",
		Long: `AncestrE keeps a family of persons with parent, spouse and child links.
Families are saved as a pair of XML files and can be archived to SQLite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnv("ANCESTRE_CONFIG", "ancestre.yaml"), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&familyFile, "file", "f", "", "path to the .fam file to edit")

	rootCmd.AddCommand(
		newCmd, addCmd, parentsCmd, marryCmd, showCmd,
		ancestorsCmd, descendantsCmd, treeCmd,
		archiveCmd, restoreCmd, listCmd,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// session is one CLI invocation's service, optionally with the archive open.
type session struct {
	svc   *service.FamilyService
	store *sqlite.SQLiteStore
}

// openSession creates the service and opens --file when set. withStore
// also opens the SQLite archive at cfg.DBPath.
func openSession(ctx context.Context, withStore bool) (*session, error) {
	s := &session{}
	if withStore {
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "database", cfg.DBPath)
		s.store = store
	}

	if s.store != nil {
		s.svc = service.NewFamilyService(cfg, famfile.New(), s.store)
	} else {
		s.svc = service.NewFamilyService(cfg, famfile.New(), nil)
	}

	if familyFile != "" {
		report, err := s.svc.Open(ctx, familyFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
	return s, nil
}

func (s *session) Close() {
	s.svc.Close()
	if s.store != nil {
		s.store.Close()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
