package task

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/dataset"
)

// MultiTask serves one split of a training run across every configured task.
// Sample indices span the member datasets through a concat view; loss and
// metric bookkeeping is shared across members.
type MultiTask struct {
	datasetType core.DatasetType
	taskNames   []string
	concat      *dataset.ConcatDataset
	configs     map[string]core.TaskConfig
	meters      *core.Meters
	registry    *core.Registry
	logger      *zap.Logger
}

// NewMultiTask builds the split's dataset from <data_dir>/<task>/<split>.jsonl
// for every configured task and loads each task's config.yml.
func NewMultiTask(dt core.DatasetType, cfg core.Config, registry *core.Registry, logger *zap.Logger) (*MultiTask, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = core.NewRegistry()
	}
	if len(cfg.Tasks) == 0 {
		return nil, errors.New("task: no tasks configured")
	}

	members := make([]core.Dataset, 0, len(cfg.Tasks))
	configs := make(map[string]core.TaskConfig, len(cfg.Tasks))
	for _, name := range cfg.Tasks {
		path := filepath.Join(cfg.DataDir, name, string(dt)+".jsonl")
		ds, err := dataset.NewFileDataset(path)
		if err != nil {
			return nil, fmt.Errorf("task: loading %s split of %q: %w", dt, name, err)
		}
		ds.NameHint = name
		members = append(members, ds)
		configs[name] = LoadTaskConfig(cfg.TasksDir, name, logger)
	}

	return &MultiTask{
		datasetType: dt,
		taskNames:   append([]string(nil), cfg.Tasks...),
		concat:      dataset.NewConcatDataset(members...),
		configs:     configs,
		meters:      core.NewMeters(),
		registry:    registry,
		logger:      logger,
	}, nil
}

func (t *MultiTask) Name() string {
	return t.concat.Name()
}

func (t *MultiTask) Type() core.DatasetType {
	return t.datasetType
}

func (t *MultiTask) Len() int {
	return t.concat.Len()
}

func (t *MultiTask) Get(i int) (core.Sample, error) {
	return t.concat.Get(i)
}

// TaskConfig returns the parsed config.yml for a member task. Unknown names
// yield an empty config.
func (t *MultiTask) TaskConfig(name string) core.TaskConfig {
	if cfg, ok := t.configs[name]; ok {
		return cfg
	}
	return core.TaskConfig{}
}

// CalculateLossAndMetrics sums the report's losses, scores its predictions by
// normalized exact match, and updates the split meters weighted by batch
// size. The total loss is returned.
func (t *MultiTask) CalculateLossAndMetrics(report *core.Report) (float64, error) {
	if report == nil {
		return 0, errors.New("task: nil report")
	}
	if report.DatasetType != t.datasetType {
		return 0, fmt.Errorf("task: report for %s split given to %s task", report.DatasetType, t.datasetType)
	}

	var total float64
	for _, loss := range report.Losses {
		total += loss
	}

	if report.Metrics == nil {
		report.Metrics = map[string]float64{}
	}
	weight := report.BatchSize
	if weight <= 0 {
		weight = len(report.Predictions)
	}

	if len(report.Predictions) > 0 {
		accuracy := scorePredictions(report.Predictions)
		report.Metrics[t.metricKey("accuracy")] = accuracy
		t.meters.Update(t.metricKey("accuracy"), accuracy, weight)
	}
	report.Metrics[t.metricKey("total_loss")] = total
	t.meters.Update(t.metricKey("total_loss"), total, weight)

	return total, nil
}

// UpdateRegistryForModel publishes dataset attributes the model reads at
// build time, both to the registry and to the model config itself.
func (t *MultiTask) UpdateRegistryForModel(cfg core.ModelConfig) {
	t.registry.Register(fmt.Sprintf("%s_num_samples", t.datasetType), t.Len())
	for _, name := range t.taskNames {
		t.registry.Register(fmt.Sprintf("%s_%s_config", name, t.datasetType), t.TaskConfig(name))
	}
	if cfg != nil {
		cfg[string(t.datasetType)+"_num_samples"] = t.Len()
		for _, name := range t.taskNames {
			cfg[name] = t.TaskConfig(name)
		}
	}
}

// CleanConfig removes the per-task entries UpdateRegistryForModel added so
// the model config can be checkpointed without dataset state.
func (t *MultiTask) CleanConfig(cfg core.ModelConfig) {
	if cfg == nil {
		return
	}
	delete(cfg, string(t.datasetType)+"_num_samples")
	for _, name := range t.taskNames {
		delete(cfg, name)
	}
}

// ReportMetrics logs the split's current meter averages alongside the
// report's own metric values.
func (t *MultiTask) ReportMetrics(report *core.Report) {
	fields := []zap.Field{zap.String("dataset_type", string(t.datasetType))}
	for name, value := range t.meters.Snapshot() {
		fields = append(fields, zap.Float64(name, value))
	}
	if report != nil {
		fields = append(fields, zap.Int("batch_size", report.BatchSize))
	}
	t.logger.Info("metrics", fields...)
}

// PrepareBatch stamps the batch with the split tag and marks it ready for
// the model.
func (t *MultiTask) PrepareBatch(batch core.Batch) (core.Batch, error) {
	if len(batch.Samples) == 0 {
		return core.Batch{}, errors.New("task: empty batch")
	}
	batch.DatasetType = t.datasetType
	batch.Prepared = true
	return batch, nil
}

func (t *MultiTask) ResetMeters() {
	t.meters.Reset()
}

// VerboseDump writes per-prediction detail at debug level.
func (t *MultiTask) VerboseDump(report *core.Report) {
	if report == nil {
		return
	}
	for _, pred := range report.Predictions {
		t.logger.Debug("prediction",
			zap.String("dataset_type", string(t.datasetType)),
			zap.String("sample_id", pred.SampleID),
			zap.String("answer", pred.Answer),
			zap.String("expected", pred.Expected),
			zap.Float64("score", pred.Score),
		)
	}
}

// Meters exposes the split meters for inspection.
func (t *MultiTask) Meters() *core.Meters {
	return t.meters
}

func (t *MultiTask) metricKey(metric string) string {
	return fmt.Sprintf("%s/%s", t.datasetType, metric)
}
