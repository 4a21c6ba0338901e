package reporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/tirkarthi/mmf/pkg/core"
)

type TableReporter struct {
	Writer io.Writer
}

func (r TableReporter) Report(preds []core.Prediction) error {
	var scored int
	var total float64
	for _, pred := range preds {
		total += pred.Score
		if pred.Score > 0 {
			scored++
		}
	}
	mean := 0.0
	if len(preds) > 0 {
		mean = total / float64(len(preds))
	}

	table := tablewriter.NewWriter(r.Writer)
	table.Header([]string{"Metric", "Value"})
	table.Append([]string{"Predictions", fmt.Sprintf("%d", len(preds))})
	table.Append([]string{"Matched", fmt.Sprintf("%d", scored)})
	table.Append([]string{"Mean score", fmt.Sprintf("%.4f", mean)})
	table.Render()
	return nil
}
