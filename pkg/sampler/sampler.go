package sampler

import "math/rand"

// Sampler yields the order in which a data loader visits sample indices.
type Sampler interface {
	Name() string
	Len() int
	Indices() []int
}

// Sequential visits indices in natural order.
type Sequential struct {
	N int
}

func NewSequential(n int) *Sequential {
	return &Sequential{N: n}
}

func (s *Sequential) Name() string {
	return "sequential"
}

func (s *Sequential) Len() int {
	return s.N
}

func (s *Sequential) Indices() []int {
	indices := make([]int, s.N)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Random visits indices in a seeded random permutation. The same seed always
// produces the same order.
type Random struct {
	N    int
	Seed int64
}

func NewRandom(n int, seed int64) *Random {
	return &Random{N: n, Seed: seed}
}

func (s *Random) Name() string {
	return "random"
}

func (s *Random) Len() int {
	return s.N
}

func (s *Random) Indices() []int {
	rng := rand.New(rand.NewSource(s.Seed))
	return rng.Perm(s.N)
}
