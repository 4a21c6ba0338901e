package reporter

import (
	"fmt"
	"io"

	"github.com/tirkarthi/mmf/pkg/core"
)

// Reporter writes accumulated test-split predictions.
type Reporter interface {
	Report(preds []core.Prediction) error
}

const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// New selects a reporter for the requested output format.
func New(format string, writer io.Writer) (Reporter, error) {
	switch format {
	case FormatJSON:
		return JSONReporter{Writer: writer, Pretty: true}, nil
	case FormatCSV:
		return CSVReporter{Writer: writer}, nil
	case FormatTable:
		return TableReporter{Writer: writer}, nil
	}
	return nil, fmt.Errorf("reporter: unknown format: %s", format)
}
