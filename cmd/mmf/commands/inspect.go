package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/loader"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Build tasks and data loaders from the config and summarize them",
		RunE: func(cmd *cobra.Command, args []string) error {
			tl := loader.NewTaskLoader(appConfig, logger)
			if err := tl.LoadTasks(); err != nil {
				return err
			}
			if err := tl.MakeDataLoaders(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeHeading(out, fmt.Sprintf("Loaders for %d task(s), world size %d",
				len(appConfig.Tasks), appConfig.WorldSize()))

			table := tablewriter.NewWriter(out)
			table.Header([]string{"Split", "Samples", "Batches", "Batch size", "Sampler", "Shuffle"})
			for _, dt := range core.DatasetTypes {
				dl, err := tl.Loader(dt)
				if err != nil {
					return err
				}
				opts := dl.Options()
				samplerName := "-"
				if opts.Sampler != nil {
					samplerName = opts.Sampler.Name()
				}
				table.Append([]string{
					string(dt),
					fmt.Sprintf("%d", dl.Task().Len()),
					fmt.Sprintf("%d", dl.Len()),
					fmt.Sprintf("%d", opts.BatchSize),
					samplerName,
					fmt.Sprintf("%t", opts.Shuffle),
				})
			}
			table.Render()

			if tl.TestReporter != nil {
				fmt.Fprintln(out, "test predictions reporting: enabled")
			}
			if tl.UseCUDA {
				fmt.Fprintln(out, "device: cuda")
			}
			return nil
		},
	}
	return cmd
}

func writeHeading(out io.Writer, text string) {
	if isTerminal(out) {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
		text = style.Render(text)
	}
	fmt.Fprintln(out, text)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
