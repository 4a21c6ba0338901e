package tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/loader"
)

func writeWorkspace(t *testing.T, tasks []string, samplesPerSplit int) core.Config {
	t.Helper()
	dataDir := t.TempDir()
	tasksDir := t.TempDir()

	for _, name := range tasks {
		taskDir := filepath.Join(dataDir, name)
		require.NoError(t, os.MkdirAll(taskDir, 0o755))
		for _, dt := range core.DatasetTypes {
			var content []byte
			for i := 0; i < samplesPerSplit; i++ {
				line := fmt.Sprintf(`{"id":"%s-%d","input":"question %d","target":"answer %d"}`+"\n", name, i, i, i)
				content = append(content, line...)
			}
			require.NoError(t, os.WriteFile(filepath.Join(taskDir, string(dt)+".jsonl"), content, 0o600))
		}

		cfgDir := filepath.Join(tasksDir, name)
		require.NoError(t, os.MkdirAll(cfgDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yml"), []byte("num_answers: 2\n"), 0o600))
	}

	return core.Config{
		Tasks:    tasks,
		DataDir:  dataDir,
		TasksDir: tasksDir,
	}
}

func TestEndToEndTrainingDataFlow(t *testing.T) {
	cfg := writeWorkspace(t, []string{"vqa", "captioning"}, 6)
	cfg.Training = core.TrainingParameters{
		BatchSize:     4,
		NumWorkers:    2,
		Device:        "cuda:0",
		EvalAIPredict: true,
	}

	tl := loader.NewTaskLoader(cfg, zap.NewNop())
	require.NoError(t, tl.LoadTasks())
	require.NoError(t, tl.MakeDataLoaders())
	require.True(t, tl.UseCUDA)
	require.NotNil(t, tl.TestReporter)

	// 2 tasks x 6 samples per split, batch size 4 -> 3 batches.
	trainLoader, err := tl.Loader(core.DatasetTypeTrain)
	require.NoError(t, err)
	require.Equal(t, 3, trainLoader.Len())

	batchCh, errCh := trainLoader.Batches(context.Background())
	var seen int
	for batch := range batchCh {
		prepared, err := tl.PrepareBatch(batch)
		require.NoError(t, err)
		require.True(t, prepared.Prepared)
		require.Equal(t, core.DatasetTypeTrain, prepared.DatasetType)
		seen += prepared.Size()

		report := &core.Report{
			DatasetType: prepared.DatasetType,
			BatchSize:   prepared.Size(),
			Losses:      map[string]float64{"ce": 0.5},
		}
		for _, s := range prepared.Samples {
			report.Predictions = append(report.Predictions, core.Prediction{
				SampleID: s.ID,
				Answer:   s.Target,
				Expected: s.Target,
			})
		}

		loss, err := tl.CalculateLossAndMetrics(report)
		require.NoError(t, err)
		require.InDelta(t, 0.5, loss, 1e-9)
		require.InDelta(t, 1.0, report.Metrics["train/accuracy"], 1e-9)

		require.NoError(t, tl.ReportMetrics(core.DatasetTypeTrain, report))
	}
	require.NoError(t, <-errCh)
	require.Equal(t, 12, seen)

	require.NoError(t, tl.ResetMeters(core.DatasetTypeTrain))
}

func TestEndToEndSubmissionFlow(t *testing.T) {
	cfg := writeWorkspace(t, []string{"vqa"}, 4)
	cfg.Training = core.TrainingParameters{
		BatchSize:     2,
		EvalAIPredict: true,
		Device:        "cpu",
	}

	tl := loader.NewTaskLoader(cfg, zap.NewNop())
	require.NoError(t, tl.LoadTasks())
	require.NoError(t, tl.MakeDataLoaders())

	testLoader, err := tl.Loader(core.DatasetTypeTest)
	require.NoError(t, err)
	require.False(t, testLoader.Options().Shuffle)

	batchCh, errCh := testLoader.Batches(context.Background())
	for batch := range batchCh {
		report := &core.Report{DatasetType: core.DatasetTypeTest, BatchSize: batch.Size()}
		for _, s := range batch.Samples {
			report.Predictions = append(report.Predictions, core.Prediction{
				SampleID: s.ID,
				Answer:   "predicted",
			})
		}
		tl.TestReporter.Add(report)
	}
	require.NoError(t, <-errCh)
	require.Equal(t, 4, tl.TestReporter.Len())

	path, err := tl.TestReporter.Flush(t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestEndToEndDistributedShards(t *testing.T) {
	cfg := writeWorkspace(t, []string{"vqa"}, 8)
	cfg.Training = core.TrainingParameters{
		BatchSize:   4,
		Distributed: true,
		WorldSize:   2,
		LocalRank:   new(int),
	}

	seen := map[string]int{}
	for rank := 0; rank < 2; rank++ {
		*cfg.Training.LocalRank = rank
		tl := loader.NewTaskLoader(cfg, zap.NewNop())
		require.NoError(t, tl.LoadTasks())
		require.NoError(t, tl.MakeDataLoaders())

		dl, err := tl.Loader(core.DatasetTypeTrain)
		require.NoError(t, err)
		// Global batch size 4 over world size 2.
		require.Equal(t, 2, dl.Options().BatchSize)

		batchCh, errCh := dl.Batches(context.Background())
		for batch := range batchCh {
			for _, s := range batch.Samples {
				seen[s.ID]++
			}
		}
		require.NoError(t, <-errCh)
	}

	// The two shards cover the dataset exactly once.
	require.Len(t, seen, 8)
	for id, count := range seen {
		require.Equal(t, 1, count, "sample %s", id)
	}
}
