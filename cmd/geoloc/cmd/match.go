package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
)

var matchJSON bool

var matchCmd = &cobra.Command{
	Use:   "match <text>...",
	Short: "Show the candidates and decision for a text",
	Long:  "Scans one text against the gazetteer and explains which rule picked the location.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print JSON")
}

type matchOutput struct {
	Text       string                `json:"text"`
	Candidates []gazetteer.Candidate `json:"candidates"`
	Rule       string                `json:"rule"`
	Level      *int                  `json:"level"`
	Location   enrich.Location       `json:"location"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	dec, cands := a.Resolver.Explain(text)
	loc := a.Table.Enrich(dec.LabelID)

	if matchJSON {
		if cands == nil {
			cands = []gazetteer.Candidate{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(matchOutput{Text: text, Candidates: cands, Rule: dec.Rule, Level: dec.Level, Location: loc})
	}
	fmt.Fprint(cmd.OutOrStdout(), formatMatch(newStyles(useColor()), text, dec, cands, loc))
	return nil
}
