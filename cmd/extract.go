package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyteller/pkg/config"
	"storyteller/pkg/schema"
	"storyteller/pkg/session"
	"storyteller/pkg/state"
	"storyteller/pkg/utils"
)

var (
	extractOut    string
	extractScript bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract dialogues from a .txt story or a .pdf script",
	Long: `Extract runs a file through the same workflow as an upload and prints the
resulting session state as JSON. Text files are extracted by the configured
model; PDF files are parsed by the emotion backend.`,
	Args: cobra.ExactArgs(1),
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

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var result state.UIState
		name := filepath.Base(path)
		if strings.EqualFold(filepath.Ext(path), "."+config.UploadModePDF) {
			result, err = st.UploadPDF(ctx, id, name, f)
		} else {
			result, err = st.UploadText(ctx, id, name, f)
		}
		if err != nil {
			return err
		}

		if extractOut != "" {
			if err := utils.Save(extractOut, result.Extraction); err != nil {
				return err
			}
			logger.Info("extraction saved", "path", extractOut, "entries", len(result.Extraction.Dialogues))
		}
		if extractScript {
			fmt.Fprintln(cmd.OutOrStdout(), schema.Render(result.Extraction.Dialogues))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJSON(result))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOut, "out", "", "also write the extraction JSON to this path")
	extractCmd.Flags().BoolVar(&extractScript, "script", false, "print the script rendering instead of JSON")
}
