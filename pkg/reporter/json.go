package reporter

import (
	"encoding/json"
	"io"

	"github.com/tirkarthi/mmf/pkg/core"
)

type JSONReporter struct {
	Writer io.Writer
	Pretty bool
}

func (r JSONReporter) Report(preds []core.Prediction) error {
	encoder := json.NewEncoder(r.Writer)
	if r.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(preds)
}
