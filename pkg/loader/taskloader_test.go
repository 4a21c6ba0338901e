package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/sampler"
)

func intPtr(v int) *int {
	return &v
}

// fakeLoader wires fake tasks straight into the split mapping so dispatch
// behavior can be observed without touching disk.
func fakeLoader(cfg core.Config) (*TaskLoader, map[core.DatasetType]*fakeTask) {
	tl := NewTaskLoader(cfg, zap.NewNop())
	fakes := map[core.DatasetType]*fakeTask{}
	tl.mapping = map[core.DatasetType]core.Task{}
	for _, dt := range core.DatasetTypes {
		f := newFakeTask(dt, 12)
		fakes[dt] = f
		tl.mapping[dt] = f
	}
	tl.shouldNotLog = cfg.Training.ShouldNotLog
	return tl, fakes
}

func TestLoaderArgsDividesBatchSizeByWorldSize(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{
		BatchSize:   12,
		Distributed: true,
		WorldSize:   4,
	}}
	tl, fakes := fakeLoader(cfg)

	args, err := tl.loaderArgs(fakes[core.DatasetTypeTrain])
	require.NoError(t, err)
	require.Equal(t, 3, args.batchSize)
}

func TestLoaderArgsRejectsIndivisibleBatchSize(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{
		BatchSize:   10,
		Distributed: true,
		WorldSize:   3,
	}}
	tl, fakes := fakeLoader(cfg)

	_, err := tl.loaderArgs(fakes[core.DatasetTypeTrain])
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	require.Contains(t, err.Error(), "10")
	require.Contains(t, err.Error(), "3")
}

func TestLoaderArgsShuffleDefaults(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8}}
	tl, fakes := fakeLoader(cfg)

	for dt, wantShuffle := range map[core.DatasetType]bool{
		core.DatasetTypeTrain: true,
		core.DatasetTypeVal:   true,
		core.DatasetTypeTest:  false,
	} {
		args, err := tl.loaderArgs(fakes[dt])
		require.NoError(t, err)
		require.Equal(t, wantShuffle, args.shuffle, "split %s", dt)
		require.Nil(t, args.sampler)
	}
}

func TestLoaderArgsDistributedSampler(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{
		BatchSize:   8,
		Distributed: true,
		WorldSize:   2,
		LocalRank:   intPtr(1),
	}}
	tl, fakes := fakeLoader(cfg)

	args, err := tl.loaderArgs(fakes[core.DatasetTypeTrain])
	require.NoError(t, err)
	require.False(t, args.shuffle)
	require.IsType(t, &sampler.Distributed{}, args.sampler)

	dist := args.sampler.(*sampler.Distributed)
	require.Equal(t, 1, dist.Rank)
	require.Equal(t, 2, dist.WorldSize)
}

func TestLoaderArgsLocalRankWithoutDistributed(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{
		BatchSize: 8,
		LocalRank: intPtr(0),
	}}
	tl, fakes := fakeLoader(cfg)

	args, err := tl.loaderArgs(fakes[core.DatasetTypeTrain])
	require.NoError(t, err)
	require.Nil(t, args.sampler)
	require.True(t, args.shuffle)
}

func TestReportMetricsRespectsShouldNotLog(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{
		BatchSize:    8,
		ShouldNotLog: true,
	}}
	tl, fakes := fakeLoader(cfg)

	for _, dt := range core.DatasetTypes {
		require.NoError(t, tl.ReportMetrics(dt, &core.Report{DatasetType: dt}))
	}
	for dt, fake := range fakes {
		require.Empty(t, fake.reportCalls, "split %s", dt)
	}
}

func TestReportMetricsForwardsToMatchingSplit(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8}}
	tl, fakes := fakeLoader(cfg)

	require.NoError(t, tl.ReportMetrics(core.DatasetTypeVal, &core.Report{DatasetType: core.DatasetTypeVal}))

	require.Len(t, fakes[core.DatasetTypeVal].reportCalls, 1)
	require.Empty(t, fakes[core.DatasetTypeTrain].reportCalls)
	require.Empty(t, fakes[core.DatasetTypeTest].reportCalls)
}

func TestReportMetricsUnknownSplit(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8}}
	tl, _ := fakeLoader(cfg)

	err := tl.ReportMetrics("validation", &core.Report{})
	require.ErrorIs(t, err, core.ErrUnknownDatasetType)
}

func TestDispatchRoutesToDeclaredSplit(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8, VerboseDump: true}}
	tl, fakes := fakeLoader(cfg)

	loss, err := tl.CalculateLossAndMetrics(&core.Report{DatasetType: core.DatasetTypeTrain})
	require.NoError(t, err)
	require.Equal(t, 1.5, loss)

	_, err = tl.PrepareBatch(core.Batch{DatasetType: core.DatasetTypeVal, Samples: []core.Sample{{ID: "1"}}})
	require.NoError(t, err)

	require.NoError(t, tl.ResetMeters(core.DatasetTypeTest))
	require.NoError(t, tl.VerboseDump(&core.Report{DatasetType: core.DatasetTypeTest}))

	require.Len(t, fakes[core.DatasetTypeTrain].lossCalls, 1)
	require.Empty(t, fakes[core.DatasetTypeVal].lossCalls)

	require.Len(t, fakes[core.DatasetTypeVal].prepareCalls, 1)
	require.Empty(t, fakes[core.DatasetTypeTrain].prepareCalls)

	require.Equal(t, 1, fakes[core.DatasetTypeTest].resetCalls)
	require.Zero(t, fakes[core.DatasetTypeTrain].resetCalls)

	require.Len(t, fakes[core.DatasetTypeTest].dumpCalls, 1)
	require.Empty(t, fakes[core.DatasetTypeVal].dumpCalls)
}

func TestVerboseDumpGatedByConfig(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8}}
	tl, fakes := fakeLoader(cfg)

	require.NoError(t, tl.VerboseDump(&core.Report{DatasetType: core.DatasetTypeTrain}))
	require.Empty(t, fakes[core.DatasetTypeTrain].dumpCalls)
}

func TestFanOutOrderAndCoverage(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 8}}
	tl, fakes := fakeLoader(cfg)

	modelCfg := core.ModelConfig{}
	tl.UpdateRegistryForModel(modelCfg)
	tl.CleanConfig(modelCfg)

	for dt, fake := range fakes {
		require.Equal(t, 1, fake.registryCalls, "split %s", dt)
		require.Equal(t, 1, fake.cleanCalls, "split %s", dt)
	}
}

func writeSplitData(t *testing.T, dataDir, name string) {
	t.Helper()
	taskDir := filepath.Join(dataDir, name)
	require.NoError(t, os.MkdirAll(taskDir, 0o755))
	for _, dt := range core.DatasetTypes {
		content := `{"id":"1","input":"q","target":"a"}
{"id":"2","input":"q2","target":"a2"}
{"id":"3","input":"q3","target":"a3"}
{"id":"4","input":"q4","target":"a4"}`
		require.NoError(t, os.WriteFile(filepath.Join(taskDir, string(dt)+".jsonl"), []byte(content), 0o600))
	}
}

func TestLoadTasksAndMakeDataLoaders(t *testing.T) {
	dataDir := t.TempDir()
	writeSplitData(t, dataDir, "vqa")

	cfg := core.Config{
		Tasks:    []string{"vqa"},
		DataDir:  dataDir,
		TasksDir: t.TempDir(),
		Training: core.TrainingParameters{
			BatchSize:     2,
			NumWorkers:    2,
			Device:        "cuda:0",
			EvalAIPredict: true,
		},
	}

	tl := NewTaskLoader(cfg, zap.NewNop())
	require.NoError(t, tl.LoadTasks())
	require.NotNil(t, tl.TestReporter)

	require.NoError(t, tl.MakeDataLoaders())
	require.True(t, tl.UseCUDA)

	for _, dt := range core.DatasetTypes {
		dl, err := tl.Loader(dt)
		require.NoError(t, err)
		require.Equal(t, dt, dl.DatasetType)
		require.Equal(t, 2, dl.Options().BatchSize)
		require.Equal(t, 2, dl.Len())
	}

	// Test split keeps natural order; train split shuffles.
	testLoader, err := tl.Loader(core.DatasetTypeTest)
	require.NoError(t, err)
	require.False(t, testLoader.Options().Shuffle)

	trainLoader, err := tl.Loader(core.DatasetTypeTrain)
	require.NoError(t, err)
	require.True(t, trainLoader.Options().Shuffle)
}

func TestSetEpochFansOutToLoaders(t *testing.T) {
	cfg := core.Config{Training: core.TrainingParameters{BatchSize: 4, Seed: 3}}
	tl, _ := fakeLoader(cfg)
	require.NoError(t, tl.MakeDataLoaders())

	tl.SetEpoch(2)
	for _, dt := range core.DatasetTypes {
		dl, err := tl.Loader(dt)
		require.NoError(t, err)
		require.Equal(t, 2, dl.epoch)
	}
}

func TestLoadTasksWithoutEvalAIPredict(t *testing.T) {
	dataDir := t.TempDir()
	writeSplitData(t, dataDir, "vqa")

	cfg := core.Config{
		Tasks:    []string{"vqa"},
		DataDir:  dataDir,
		TasksDir: t.TempDir(),
		Training: core.TrainingParameters{BatchSize: 2, Device: "cpu"},
	}

	tl := NewTaskLoader(cfg, zap.NewNop())
	require.NoError(t, tl.LoadTasks())
	require.Nil(t, tl.TestReporter)

	require.NoError(t, tl.MakeDataLoaders())
	require.False(t, tl.UseCUDA)
}
