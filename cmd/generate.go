package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyteller/pkg/schema"
	"storyteller/pkg/session"
	"storyteller/pkg/state"
	"storyteller/pkg/utils"
)

var generateAnnotate bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a story and extract its dialogues",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		store := session.NewMemoryStore(0)
		defer store.Close()

		st, err := newStudio(cfg, store, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		id, _, err := st.NewSession(ctx)
		if err != nil {
			return err
		}

		result, err := st.Generate(ctx, id, func(s state.UIState) {
			fmt.Fprintln(cmd.ErrOrStderr(), s.RawStoryText)
			fmt.Fprintln(cmd.ErrOrStderr())
		})
		if err != nil {
			return err
		}

		if generateAnnotate {
			if result, err = st.Annotate(ctx, id); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema.Render(result.Extraction.Dialogues))
		logger.Debug("generated session", "state", utils.LimitStr(utils.PrettyJSON(result), 500))
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateAnnotate, "annotate", false, "send the dialogues to emotion detection")
}
