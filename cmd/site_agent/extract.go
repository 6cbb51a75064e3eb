package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-assistant/internal/observability"
	"github.com/jonathan/site-assistant/internal/source"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Fetch a page and print its extracted text without saving anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var extractSummary bool

func init() {
	extractCmd.Flags().BoolVar(&extractSummary, "summary", false, "Print a short summary instead of the full labeled text")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := source.Validate(args[0]); err != nil {
		return err
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	a := &app{cfg: cfg, logger: logger, printer: observability.NewPrinter(os.Stdout)}

	extracted, err := a.chain().Fetch(ctx, source.Normalize(args[0]))
	if err != nil {
		return err
	}

	if extractSummary {
		a.printer.PrintContent(extracted)
		return nil
	}
	_, _ = fmt.Fprintln(os.Stdout, extracted.Format())
	return nil
}
