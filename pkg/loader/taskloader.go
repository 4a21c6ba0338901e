package loader

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/reporter"
	"github.com/tirkarthi/mmf/pkg/sampler"
	"github.com/tirkarthi/mmf/pkg/task"
)

// TaskLoader builds the per-split task collections and their data loaders,
// then routes later calls to the collection matching the declared split.
type TaskLoader struct {
	cfg      core.Config
	logger   *zap.Logger
	registry *core.Registry

	// mapping is keyed by exactly train/val/test and never reassigned
	// after LoadTasks.
	mapping map[core.DatasetType]core.Task
	loaders map[core.DatasetType]*DataLoader

	// TestReporter is set only when evalai_predict is configured.
	TestReporter *reporter.TestReporter

	// UseCUDA records whether the configured device targets cuda. It is
	// consumed downstream, not here.
	UseCUDA bool

	shouldNotLog bool
}

func NewTaskLoader(cfg core.Config, logger *zap.Logger) *TaskLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskLoader{
		cfg:      cfg,
		logger:   logger,
		registry: core.NewRegistry(),
	}
}

// Registry exposes the shared registry tasks publish into.
func (l *TaskLoader) Registry() *core.Registry {
	return l.registry
}

// LoadTasks instantiates the three split collections and the optional test
// reporter. Constructor errors propagate unchanged.
func (l *TaskLoader) LoadTasks() error {
	mapping := make(map[core.DatasetType]core.Task, len(core.DatasetTypes))
	for _, dt := range core.DatasetTypes {
		t, err := task.NewMultiTask(dt, l.cfg, l.registry, l.logger)
		if err != nil {
			return err
		}
		mapping[dt] = t
	}
	l.mapping = mapping

	l.shouldNotLog = l.cfg.Training.ShouldNotLog

	l.TestReporter = nil
	if l.cfg.Training.EvalAIPredict {
		l.TestReporter = reporter.NewTestReporter(mapping[core.DatasetTypeTest], l.logger)
	}
	return nil
}

// Task returns the collection serving a split.
func (l *TaskLoader) Task(dt core.DatasetType) (core.Task, error) {
	t, ok := l.mapping[dt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownDatasetType, dt)
	}
	return t, nil
}

// Loader returns the data loader serving a split. Valid only after
// MakeDataLoaders.
func (l *TaskLoader) Loader(dt core.DatasetType) (*DataLoader, error) {
	dl, ok := l.loaders[dt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownDatasetType, dt)
	}
	return dl, nil
}

// MakeDataLoaders wraps each split collection in a DataLoader and tags it
// with its split.
func (l *TaskLoader) MakeDataLoaders() error {
	tp := l.cfg.Training
	loaders := make(map[core.DatasetType]*DataLoader, len(core.DatasetTypes))

	for _, dt := range core.DatasetTypes {
		t, err := l.Task(dt)
		if err != nil {
			return err
		}
		args, err := l.loaderArgs(t)
		if err != nil {
			return err
		}

		dl, err := New(t, Options{
			BatchSize:  args.batchSize,
			NumWorkers: tp.NumWorkers,
			PinMemory:  tp.PinMemory,
			Shuffle:    args.shuffle,
			Seed:       tp.Seed,
			Sampler:    args.sampler,
		})
		if err != nil {
			return err
		}
		dl.DatasetType = dt
		loaders[dt] = dl
	}

	l.loaders = loaders
	l.UseCUDA = strings.Contains(tp.Device, "cuda")
	return nil
}

// loaderArgs is rebuilt from scratch on every call so no split's settings
// leak into the next.
type loaderArgs struct {
	batchSize int
	shuffle   bool
	sampler   sampler.Sampler
}

func (l *TaskLoader) loaderArgs(t core.Task) (loaderArgs, error) {
	tp := l.cfg.Training
	args := loaderArgs{}

	if tp.LocalRank != nil && tp.Distributed {
		s, err := sampler.NewDistributed(t.Len(), *tp.LocalRank, l.cfg.WorldSize(), sampler.DistributedOptions{
			Shuffle: true,
			Seed:    tp.Seed,
		})
		if err != nil {
			return loaderArgs{}, err
		}
		args.sampler = s
	} else {
		args.shuffle = t.Type() != core.DatasetTypeTest
	}

	worldSize := l.cfg.WorldSize()
	if tp.BatchSize%worldSize != 0 {
		return loaderArgs{}, fmt.Errorf("%w: batch size %d must be divisible by number of workers %d used",
			core.ErrInvalidConfig, tp.BatchSize, worldSize)
	}
	args.batchSize = tp.BatchSize / worldSize

	return args, nil
}

// SetEpoch advances every loader's shuffle epoch. Valid only after
// MakeDataLoaders.
func (l *TaskLoader) SetEpoch(epoch int) {
	for _, dt := range core.DatasetTypes {
		if dl, ok := l.loaders[dt]; ok {
			dl.SetEpoch(epoch)
		}
	}
}

// UpdateRegistryForModel fans the call out to every split collection in
// train, val, test order.
func (l *TaskLoader) UpdateRegistryForModel(cfg core.ModelConfig) {
	for _, dt := range core.DatasetTypes {
		if t, ok := l.mapping[dt]; ok {
			t.UpdateRegistryForModel(cfg)
		}
	}
}

// CleanConfig fans the call out to every split collection in train, val,
// test order.
func (l *TaskLoader) CleanConfig(cfg core.ModelConfig) {
	for _, dt := range core.DatasetTypes {
		if t, ok := l.mapping[dt]; ok {
			t.CleanConfig(cfg)
		}
	}
}

// ReportMetrics forwards the report to the split's collection. It is a no-op
// when logging is disabled.
func (l *TaskLoader) ReportMetrics(dt core.DatasetType, report *core.Report) error {
	if l.shouldNotLog {
		return nil
	}
	t, err := l.Task(dt)
	if err != nil {
		return err
	}
	t.ReportMetrics(report)
	return nil
}

// CalculateLossAndMetrics resolves the collection via the report's split and
// returns whatever it returns.
func (l *TaskLoader) CalculateLossAndMetrics(report *core.Report) (float64, error) {
	if report == nil {
		return 0, fmt.Errorf("loader: nil report")
	}
	t, err := l.Task(report.DatasetType)
	if err != nil {
		return 0, err
	}
	return t.CalculateLossAndMetrics(report)
}

// PrepareBatch resolves the collection via the batch's split and forwards.
func (l *TaskLoader) PrepareBatch(batch core.Batch) (core.Batch, error) {
	t, err := l.Task(batch.DatasetType)
	if err != nil {
		return core.Batch{}, err
	}
	return t.PrepareBatch(batch)
}

// ResetMeters clears the split's meters.
func (l *TaskLoader) ResetMeters(dt core.DatasetType) error {
	t, err := l.Task(dt)
	if err != nil {
		return err
	}
	t.ResetMeters()
	return nil
}

// VerboseDump forwards per-prediction detail when verbose dumping is
// configured.
func (l *TaskLoader) VerboseDump(report *core.Report) error {
	if !l.cfg.Training.VerboseDump {
		return nil
	}
	if report == nil {
		return nil
	}
	t, err := l.Task(report.DatasetType)
	if err != nil {
		return err
	}
	t.VerboseDump(report)
	return nil
}
