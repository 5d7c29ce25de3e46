package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"schoolattend/internal/attendance"
	"schoolattend/internal/ingest"
	"schoolattend/internal/store"
)

var defaultClass string

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse a report and print the rows it yields without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var lookups []ingest.Lookup
		if cfg.StoreBackend != "" && cfg.StoreBackend != "memory" {
			backend, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()
			lookups = append(lookups, backend.UserClass, backend.AttendanceClass)
		}
		if defaultClass != "" {
			lookups = append(lookups, func(context.Context, string) (string, bool, error) {
				return defaultClass, true, nil
			})
		}

		parsed, err := ingest.Parse(ctx, ingest.Input{FileName: filepath.Base(args[0]), Data: data},
			ingest.NewClassResolver(lookups...))
		if err != nil {
			return err
		}
		return printJSON(cmd, parsed)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Parse a report and merge its rows into the attendance store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		backend, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		rep, err := ingestFile(ctx, backend, filepath.Base(args[0]), data)
		if perr := printJSON(cmd, rep); perr != nil {
			return perr
		}
		if errors.Is(err, attendance.ErrNoRows) {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return err
	},
}

func ingestFile(ctx context.Context, backend store.Backend, name string, data []byte) (attendance.Report, error) {
	return attendance.NewService(backend, log).Ingest(ctx, name, data)
}

func init() {
	parseCmd.Flags().StringVar(&defaultClass, "class", "", "class assigned to students no lookup resolves")
}
