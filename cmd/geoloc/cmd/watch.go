package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Resolve batches dropped into an inbox directory",
	Long: "Watches a directory (default .geoloc/inbox) and resolves every .jsonl or .csv\n" +
		"batch written into it. Results land next to the batch as <name>.resolved.jsonl\n" +
		"and in the result store. Runs until interrupted.",
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	watched, err := a.Watch(dir)
	if err != nil {
		return storeError(err, a.StorePath())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "⚡ watching %s\n", watched)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "\n⚡ shutting down...")
	return a.Close()
}
