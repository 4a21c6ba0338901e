package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tirkarthi/mmf/pkg/core"
)

type CSVReporter struct {
	Writer io.Writer
}

func (r CSVReporter) Report(preds []core.Prediction) error {
	writer := csv.NewWriter(r.Writer)
	header := []string{"sample_id", "answer", "expected", "score"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, pred := range preds {
		record := []string{
			pred.SampleID,
			pred.Answer,
			pred.Expected,
			strconv.FormatFloat(pred.Score, 'f', 4, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
