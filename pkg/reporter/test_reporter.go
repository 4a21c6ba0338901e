package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tirkarthi/mmf/pkg/core"
)

// TestReporter accumulates test-split predictions across batches and writes
// them as a submission file for external evaluation.
type TestReporter struct {
	task   core.Task
	logger *zap.Logger

	mu          sync.Mutex
	predictions []core.Prediction
}

func NewTestReporter(task core.Task, logger *zap.Logger) *TestReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestReporter{task: task, logger: logger}
}

// Task returns the wrapped test collection.
func (r *TestReporter) Task() core.Task {
	return r.task
}

// Add appends the report's predictions to the submission.
func (r *TestReporter) Add(report *core.Report) {
	if report == nil || len(report.Predictions) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions = append(r.predictions, report.Predictions...)
}

// Len reports how many predictions have been accumulated.
func (r *TestReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.predictions)
}

// Predictions returns a copy of the accumulated predictions.
func (r *TestReporter) Predictions() []core.Prediction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Prediction, len(r.predictions))
	copy(out, r.predictions)
	return out
}

// Report writes the accumulated predictions in the requested format.
func (r *TestReporter) Report(format string, writer io.Writer) error {
	rep, err := New(format, writer)
	if err != nil {
		return err
	}
	return rep.Report(r.Predictions())
}

// Flush writes the submission JSON into dir and returns the file path. The
// accumulated predictions are kept so repeated flushes are idempotent.
func (r *TestReporter) Flush(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("reporter: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_predictions.json",
		time.Now().Format("2006-01-02T15-04-05"), sanitizeName(r.task.Name()))
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := r.Report(FormatJSON, file); err != nil {
		return "", err
	}

	r.logger.Info("wrote predictions",
		zap.String("path", path),
		zap.Int("count", r.Len()),
	)
	return path, nil
}

func sanitizeName(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			out = append(out, r)
		}
	}
	return string(out)
}
