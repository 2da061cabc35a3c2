package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyteller/pkg/schema"
	"storyteller/pkg/utils"
)

var scriptCmd = &cobra.Command{
	Use:   "script <extraction.json>",
	Short: "Render an extraction saved with extract --out as a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := utils.Load[schema.ExtractionResult](args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema.Render(result.Dialogues))
		return nil
	},
}
