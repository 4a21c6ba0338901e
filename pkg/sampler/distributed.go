package sampler

import (
	"fmt"
	"math/rand"
)

// Distributed partitions one global index space across cooperating worker
// processes. Each rank sees an equal-length strided shard; when the dataset
// size is not divisible by the world size, leading indices are repeated to
// pad the final stride.
type Distributed struct {
	N         int
	Rank      int
	WorldSize int
	Shuffle   bool
	Seed      int64

	epoch int
}

type DistributedOptions struct {
	Shuffle bool
	Seed    int64
}

func NewDistributed(n, rank, worldSize int, opts DistributedOptions) (*Distributed, error) {
	if worldSize <= 0 {
		return nil, fmt.Errorf("sampler: world size must be positive, got %d", worldSize)
	}
	if rank < 0 || rank >= worldSize {
		return nil, fmt.Errorf("sampler: rank %d out of range for world size %d", rank, worldSize)
	}
	return &Distributed{
		N:         n,
		Rank:      rank,
		WorldSize: worldSize,
		Shuffle:   opts.Shuffle,
		Seed:      opts.Seed,
	}, nil
}

func (s *Distributed) Name() string {
	return "distributed"
}

// Len is the per-rank shard length: ceil(N / WorldSize).
func (s *Distributed) Len() int {
	return (s.N + s.WorldSize - 1) / s.WorldSize
}

// SetEpoch reseeds the shuffle so shards see a different order each epoch.
// All ranks must call it with the same value to keep shards disjoint.
func (s *Distributed) SetEpoch(epoch int) {
	s.epoch = epoch
}

func (s *Distributed) Indices() []int {
	indices := make([]int, s.N)
	for i := range indices {
		indices[i] = i
	}
	if s.Shuffle {
		rng := rand.New(rand.NewSource(s.Seed + int64(s.epoch)))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	total := s.Len() * s.WorldSize
	for len(indices) < total {
		indices = append(indices, indices[:min(total-len(indices), s.N)]...)
	}

	shard := make([]int, 0, s.Len())
	for i := s.Rank; i < total; i += s.WorldSize {
		shard = append(shard, indices[i])
	}
	return shard
}
