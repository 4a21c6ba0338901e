package core

import "fmt"

// DatasetType identifies which split of a training run a task, batch, or
// report belongs to.
type DatasetType string

const (
	DatasetTypeTrain DatasetType = "train"
	DatasetTypeVal   DatasetType = "val"
	DatasetTypeTest  DatasetType = "test"
)

// DatasetTypes lists the splits in dispatch order.
var DatasetTypes = []DatasetType{DatasetTypeTrain, DatasetTypeVal, DatasetTypeTest}

// ParseDatasetType validates a split name.
func ParseDatasetType(value string) (DatasetType, error) {
	switch DatasetType(value) {
	case DatasetTypeTrain, DatasetTypeVal, DatasetTypeTest:
		return DatasetType(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDatasetType, value)
}

// Sample is a single training example.
type Sample struct {
	ID       string            `json:"id" yaml:"id"`
	Input    string            `json:"input" yaml:"input"`
	Target   string            `json:"target" yaml:"target"`
	Features []float32         `json:"features,omitempty" yaml:"features,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Batch is a collated group of samples produced by a data loader.
type Batch struct {
	DatasetType DatasetType `json:"dataset_type"`
	Samples     []Sample    `json:"samples"`
	Prepared    bool        `json:"prepared"`
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	return len(b.Samples)
}

// Prediction is a model output for one sample, paired with the expected
// target so tasks can score it.
type Prediction struct {
	SampleID string  `json:"sample_id"`
	Answer   string  `json:"answer"`
	Expected string  `json:"expected,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Report carries per-batch model output back to the owning task for loss and
// metric computation.
type Report struct {
	DatasetType DatasetType        `json:"dataset_type"`
	BatchSize   int                `json:"batch_size"`
	Losses      map[string]float64 `json:"losses,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Predictions []Prediction       `json:"predictions,omitempty"`
}

// ModelConfig is the mutable model-side configuration tasks annotate and
// clean. Contents are opaque to the loader.
type ModelConfig map[string]any

// TaskConfig holds per-task settings parsed from a task's config.yml.
type TaskConfig map[string]any
