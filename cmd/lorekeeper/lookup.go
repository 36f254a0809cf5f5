package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Query the Lord of Mysteries fandom wiki",
}

var lookupCharacterCmd = &cobra.Command{
	Use:   "character <name>",
	Short: "Extract a character's description, appearance and pathway",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, func(a *app) (any, error) {
			return a.result.WikiService.LookupCharacter(cmd.Context(), strings.Join(args, " "))
		})
	},
}

var lookupPathwayCmd = &cobra.Command{
	Use:   "pathway <name>",
	Short: "Extract a pathway's overview and sequence levels",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, func(a *app) (any, error) {
			return a.result.WikiService.LookupPathway(cmd.Context(), strings.Join(args, " "))
		})
	},
}

var lookupSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Summarise any wiki page",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, func(a *app) (any, error) {
			return a.result.WikiService.LookupGeneral(cmd.Context(), strings.Join(args, " "))
		})
	},
}

var lookupFactCmd = &cobra.Command{
	Use:   "fact",
	Short: "Print a random lore fact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLookup(cmd, func(a *app) (any, error) {
			fact, err := a.result.WikiService.RandomFact(cmd.Context())
			return map[string]string{"fact": fact}, err
		})
	},
}

func init() {
	lookupCmd.AddCommand(lookupCharacterCmd, lookupPathwayCmd, lookupSearchCmd, lookupFactCmd)
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, query func(a *app) (any, error)) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	record, err := query(a)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(record)
}
