package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/ports"
)

var (
	showPrefix string
	showLimit  int
	showJSON   bool
)

var showCmd = &cobra.Command{
	Use:   "show [identifier]",
	Short: "Show stored results",
	Long:  "Prints one stored result by dataset identifier, or lists stored results.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPrefix, "prefix", "", "Only list identifiers with this prefix")
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "List at most this many results (0 = all)")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return storeError(err, a.StorePath())
	}
	s := newStyles(useColor())
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		r, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("no stored result for %q", args[0])
		}
		if showJSON {
			return writeJSON(cmd, r)
		}
		fmt.Fprint(out, formatResult(s, *r))
		return nil
	}

	results, err := store.List(showPrefix, showLimit)
	if err != nil {
		return err
	}
	if showJSON {
		if results == nil {
			results = []ports.Result{}
		}
		return writeJSON(cmd, results)
	}
	total, err := store.Count()
	if err != nil {
		return err
	}
	fmt.Fprint(out, formatResultList(s, results, total))
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
