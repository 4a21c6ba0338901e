package core

// Task is a per-split collection of samples plus the split-specific loss,
// metric, and reporting behavior that goes with them.
type Task interface {
	Dataset

	// Type reports which split the task serves.
	Type() DatasetType

	// CalculateLossAndMetrics scores the report's predictions, folds its
	// losses into the task meters, and returns the total loss.
	CalculateLossAndMetrics(report *Report) (float64, error)

	// UpdateRegistryForModel publishes dataset attributes the model needs.
	UpdateRegistryForModel(cfg ModelConfig)

	// CleanConfig strips task-specific entries from the model config.
	CleanConfig(cfg ModelConfig)

	// ReportMetrics emits the task's current meter values.
	ReportMetrics(report *Report)

	// PrepareBatch stamps and finalizes a collated batch for consumption.
	PrepareBatch(batch Batch) (Batch, error)

	ResetMeters()

	// VerboseDump writes per-prediction detail for debugging.
	VerboseDump(report *Report)
}
