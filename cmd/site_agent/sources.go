package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-assistant/internal/sitemap"
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Load a web page as a source",
	Long:  "Fetches the page through the fallback chain, extracts its text and makes it available to chat. The first source, or one added with --primary, starts a fresh conversation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Stop using a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sources and their status",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every source and the conversation (the API key is kept)",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var discoverCmd = &cobra.Command{
	Use:   "discover <url>",
	Short: "Add related pages from a source's sitemap",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

var (
	addNoDiscover bool
	addPrimary    bool
)

func init() {
	addCmd.Flags().BoolVar(&addNoDiscover, "no-discover", false, "Skip sitemap discovery after loading")
	addCmd.Flags().BoolVar(&addPrimary, "primary", false, "Treat the page as a new knowledge base and clear the conversation")

	rootCmd.AddCommand(addCmd, removeCmd, listCmd, resetCmd, discoverCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		primary := addPrimary || a.state.Registry.Len() == 0
		result, err := a.manager(!addNoDiscover).AddSource(ctx, args[0], primary)
		if result != nil {
			a.printer.PrintContent(result.Content)
			a.printer.PrintDiscovered(result.Discovered)
			if result.DiscoveryErr != nil && !errors.Is(result.DiscoveryErr, sitemap.ErrSitemapUnavailable) {
				_, _ = fmt.Fprintf(os.Stderr, "Sitemap discovery failed: %v\n", result.DiscoveryErr)
			}
		}
		a.printer.PrintSources(a.state.Registry.List())
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		return nil
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		result, err := a.manager(false).RemoveSource(ctx, args[0])
		if err != nil {
			return err
		}
		if result.Empty {
			_, _ = fmt.Fprintln(os.Stdout, "Last source removed; conversation cleared.")
		}
		a.printer.PrintSources(a.state.Registry.List())
		return nil
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		a.printer.PrintSources(a.state.Registry.List())
		return nil
	})
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if err := a.manager(false).Reset(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(os.Stdout, "Sources and conversation cleared.")
		return nil
	})
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		added, err := a.manager(true).Discover(ctx, args[0])
		if err != nil {
			return err
		}
		if len(added) == 0 {
			_, _ = fmt.Fprintln(os.Stdout, "No new pages found.")
			return nil
		}
		a.printer.PrintDiscovered(added)
		return nil
	})
}
