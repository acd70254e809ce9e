package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: "Starts the JSON API (/api/match, /api/resolve, /api/results/{id}, /api/stats)\n" +
		"and a small match page. Runs until interrupted.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8080)")
	bind(serveCmd.Flags().Lookup("addr"), config.KeyServeAddr)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	srv, err := a.Serve(settings.Serve.Addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "⚡ geoloc serving at %s\n", srv.URL())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "\n⚡ shutting down...")
	return a.Close()
}
