package commands

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/reporter"
)

func newReportCommand() *cobra.Command {
	var (
		inputPath string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a predictions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}
			var preds []core.Prediction
			if err := json.Unmarshal(data, &preds); err != nil {
				return err
			}

			rep, err := reporter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return rep.Report(preds)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "predictions file path")
	cmd.Flags().StringVar(&format, "format", reporter.FormatTable, "output format (table, json, csv)")
	return cmd
}
