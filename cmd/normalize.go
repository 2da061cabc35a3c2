package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"storyteller/pkg/story"
)

var showDiff bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Clean up story text the way generated stories are cleaned",
	Long: `Normalize drops separator lines made of asterisks, unwraps whole-line
**bold** headings, collapses blank runs and trims the text.

Reads from stdin when no file is given. With --diff, prints a word-level
diff instead of the result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		out := story.Normalize(raw)

		if showDiff {
			deltas := story.DiffWords(raw, out)
			if !story.Changed(deltas) {
				fmt.Fprintln(cmd.ErrOrStderr(), "already normalized")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), story.FormatDiff(deltas))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&showDiff, "diff", false, "print a word-level diff of the changes")
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(b), nil
}
