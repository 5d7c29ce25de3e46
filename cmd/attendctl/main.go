package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"schoolattend/internal/config"
	"schoolattend/internal/store"
)

var (
	cfg         config.App
	log         *slog.Logger
	backendFlag string
)

var rootCmd = &cobra.Command{
	Use:   "attendctl",
	Short: "Operate the school attendance service from the command line",
	Long: `attendctl parses attendance reports (PDF, Excel or text exports), merges
them into the attendance store and manages directory users and tokens.

Configuration is read from the same environment variables and .env file as
the API server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if backendFlag != "" {
			cfg.StoreBackend = backendFlag
		}
		log = config.NewLogger(cfg.LogLevel)
		slog.SetDefault(log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&backendFlag, "store", "", "store backend: postgres, firestore or memory (default: $STORE_BACKEND)",
	)
	rootCmd.AddCommand(parseCmd, ingestCmd, addUserCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (store.Backend, error) {
	return store.Open(ctx, store.Options{
		Backend:         cfg.StoreBackend,
		DatabaseURL:     cfg.DatabaseURL,
		CredentialsFile: cfg.CredentialsFile,
		ProjectID:       cfg.ProjectID,
		StartupRetries:  cfg.StartupRetries,
		Logger:          log,
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
