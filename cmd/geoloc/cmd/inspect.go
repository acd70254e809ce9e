package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/domain/gazetteer"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show gazetteer statistics",
	Long:  "Loads the gazetteer and label table and reports entry counts, duplicate labels, gazetteer labels missing from the label table and the level histogram.",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print JSON")
}

type inspectOutput struct {
	Gazetteer   gazetteer.Stats `json:"gazetteer"`
	Labels      int             `json:"enrichment_labels"`
	Unlabelled  []string        `json:"unlabelled"`
	CantonLevel int             `json:"canton_level"`
	LevelCheck  string          `json:"canton_level_check"`
	Fields      []string        `json:"fields"`
	Rules       []string        `json:"rules"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	st := a.Index.Stats()
	levelErr := a.Index.ValidateLevels(settings.CantonLevel)
	unlabelled := a.Table.Missing(a.Index.LabelIDs())

	if inspectJSON {
		check := "ok"
		if levelErr != nil {
			check = levelErr.Error()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(inspectOutput{
			Gazetteer:   st,
			Labels:      a.Table.Len(),
			Unlabelled:  unlabelled,
			CantonLevel: settings.CantonLevel,
			LevelCheck:  check,
			Fields:      a.Resolver.Fields(),
			Rules:       a.Resolver.Rules(),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), formatInspect(newStyles(useColor()), st, settings.CantonLevel, levelErr, a.Table.Len(), unlabelled))
	return nil
}
