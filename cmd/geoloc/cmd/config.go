package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/app"
	"github.com/loopercamera/4M/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the effective settings after defaults, config file, GEOLOC_* environment and flags.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	s := newStyles(useColor())
	out := cmd.OutOrStdout()

	file := v.ConfigFileUsed()
	if file == "" {
		file = s.muted.Render("(none, defaults and environment only)")
	}

	fmt.Fprintln(out, s.title.Render("⚡ geoloc config"))
	fmt.Fprintf(out, "  Root:       %s\n", root)
	fmt.Fprintf(out, "  File:       %s\n", file)
	fmt.Fprintf(out, "  Inbox:      %s\n", paths.InboxDir)
	store := settings.Store.Path
	if store == "" {
		store = paths.DB
	}
	fmt.Fprintf(out, "  Store:      %s\n", store)
	fmt.Fprintln(out)

	all := config.Settings(v)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s  %v\n", s.key.Render(fmt.Sprintf("%-22s", k)), all[k])
	}
	return nil
}
