package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/tirkarthi/mmf/pkg/core"
	"github.com/tirkarthi/mmf/pkg/sampler"
)

// CollateFn folds fetched samples into a batch. The default keeps samples
// as-is; callers with tensor-shaped data supply their own.
type CollateFn func(samples []core.Sample) core.Batch

func defaultCollate(samples []core.Sample) core.Batch {
	return core.Batch{Samples: samples}
}

// Options configures a DataLoader.
type Options struct {
	BatchSize  int
	NumWorkers int
	PinMemory  bool
	Shuffle    bool
	Seed       int64
	DropLast   bool
	Sampler    sampler.Sampler
	Collate    CollateFn
}

// DataLoader batches samples from a task according to its sampling policy.
// Fetching runs on a worker pool; batches are delivered in sampler order.
type DataLoader struct {
	// DatasetType tags the loader with its split. It is assigned after
	// construction.
	DatasetType core.DatasetType

	task  core.Task
	opts  Options
	epoch int
}

func New(task core.Task, opts Options) (*DataLoader, error) {
	if task == nil {
		return nil, fmt.Errorf("loader: task is required")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", core.ErrInvalidConfig, opts.BatchSize)
	}
	if opts.Collate == nil {
		opts.Collate = defaultCollate
	}
	return &DataLoader{task: task, opts: opts}, nil
}

// Task returns the wrapped task.
func (l *DataLoader) Task() core.Task {
	return l.task
}

// Options returns the loader configuration.
func (l *DataLoader) Options() Options {
	return l.opts
}

// Len is the number of batches one pass over the task produces.
func (l *DataLoader) Len() int {
	n := l.sampleCount()
	if l.opts.DropLast {
		return n / l.opts.BatchSize
	}
	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

func (l *DataLoader) sampleCount() int {
	if l.opts.Sampler != nil {
		return l.opts.Sampler.Len()
	}
	return l.task.Len()
}

// SetEpoch advances the shuffle seed so successive passes draw different
// permutations. Epoch-aware samplers are forwarded the same value.
func (l *DataLoader) SetEpoch(epoch int) {
	l.epoch = epoch
	if s, ok := l.opts.Sampler.(interface{ SetEpoch(int) }); ok {
		s.SetEpoch(epoch)
	}
}

func (l *DataLoader) indices() []int {
	if l.opts.Sampler != nil {
		return l.opts.Sampler.Indices()
	}
	if l.opts.Shuffle {
		return sampler.NewRandom(l.task.Len(), l.opts.Seed+int64(l.epoch)).Indices()
	}
	return sampler.NewSequential(l.task.Len()).Indices()
}

// Batches streams one pass over the task. The error channel carries at most
// one error; both channels close when the pass completes or fails.
func (l *DataLoader) Batches(ctx context.Context) (<-chan core.Batch, <-chan error) {
	batchCh := make(chan core.Batch)
	errCh := make(chan error, 1)

	go func() {
		defer close(batchCh)
		defer close(errCh)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		groups := chunkIndices(l.indices(), l.opts.BatchSize, l.opts.DropLast)
		workers := l.opts.NumWorkers
		if workers <= 0 {
			workers = 1
		}

		type job struct {
			seq     int
			indices []int
		}
		type result struct {
			seq   int
			batch core.Batch
			err   error
		}

		jobs := make(chan job)
		results := make(chan result, workers)

		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for j := range jobs {
					res := result{seq: j.seq}
					samples := make([]core.Sample, 0, len(j.indices))
					for _, idx := range j.indices {
						s, err := l.task.Get(idx)
						if err != nil {
							res.err = err
							break
						}
						samples = append(samples, s)
					}
					if res.err == nil {
						res.batch = l.opts.Collate(samples)
						res.batch.DatasetType = l.DatasetType
					}
					select {
					case results <- res:
					case <-ctx.Done():
						return
					}
				}
			}()
		}

		go func() {
			defer close(jobs)
			for seq, group := range groups {
				select {
				case jobs <- job{seq: seq, indices: group}:
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			wg.Wait()
			close(results)
		}()

		// Reorder results so consumers see batches in sampler order.
		pending := make(map[int]result)
		next := 0
		for res := range results {
			pending[res.seq] = res
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if cur.err != nil {
					errCh <- cur.err
					return
				}
				select {
				case batchCh <- cur.batch:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
				next++
			}
		}
	}()

	return batchCh, errCh
}

func chunkIndices(indices []int, size int, dropLast bool) [][]int {
	var groups [][]int
	for start := 0; start < len(indices); start += size {
		end := start + size
		if end > len(indices) {
			if dropLast {
				break
			}
			end = len(indices)
		}
		groups = append(groups, indices[start:end])
	}
	return groups
}
