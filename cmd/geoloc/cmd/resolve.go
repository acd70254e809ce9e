package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	fsw "github.com/loopercamera/4M/internal/adapters/fsnotify"
)

var (
	resolveOutput  string
	resolveNoStore bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <batch.jsonl|batch.csv>",
	Short: "Resolve a batch file",
	Long: "Reads metadata records from a JSONL or CSV file, resolves one location per\n" +
		"record and writes the results as JSONL (default <batch>.resolved.jsonl).\n" +
		"Results are also saved to the result store unless --no-store is given.",
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Output JSONL file")
	resolveCmd.Flags().BoolVar(&resolveNoStore, "no-store", false, "Do not save results to the result store")
}

func runResolve(cmd *cobra.Command, args []string) error {
	in := args[0]
	out := resolveOutput
	if out == "" {
		out = fsw.OutputPath(in)
	}

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	sum, err := a.ResolveFile(cmd.Context(), in, out, !resolveNoStore)
	if err != nil {
		return storeError(err, a.StorePath())
	}

	s := newStyles(useColor())
	fmt.Fprint(cmd.OutOrStdout(), formatSummary(s, sum))
	fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", s.key.Render(fmt.Sprintf("%-10s", "output")), out)
	return nil
}
