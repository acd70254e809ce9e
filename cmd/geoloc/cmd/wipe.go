package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var wipeForce bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all stored results",
	Long:  "Clears the result store and removes *.resolved.jsonl files from the project inbox.",
	Args:  cobra.NoArgs,
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeForce, "force", false, "Skip confirmation prompt")
}

func runWipe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if _, err := os.Stat(a.StorePath()); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚡ no data to wipe")
		return nil
	}

	if !wipeForce {
		fmt.Fprintf(out, "⚠ This will delete all stored results in %s. Continue? [y/N] ", a.StorePath())
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "cancelled")
			return nil
		}
	}

	store, err := a.Store()
	if err != nil {
		return storeError(err, a.StorePath())
	}
	if err := store.Wipe(); err != nil {
		return err
	}
	n, err := a.Paths.CleanOutputs()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "⚡ stored results wiped (%d inbox outputs removed)\n", n)
	return nil
}
