package dataset

import (
	"fmt"
	"strings"

	"github.com/tirkarthi/mmf/pkg/core"
)

// ConcatDataset joins several datasets into one index space. Global indices
// map onto member datasets through cumulative prefix sums.
type ConcatDataset struct {
	members []core.Dataset
	cum     []int
	total   int
}

func NewConcatDataset(members ...core.Dataset) *ConcatDataset {
	d := &ConcatDataset{members: members}
	d.cum = make([]int, len(members))
	for i, member := range members {
		d.total += member.Len()
		d.cum[i] = d.total
	}
	return d
}

func (d *ConcatDataset) Name() string {
	names := make([]string, len(d.members))
	for i, member := range d.members {
		names[i] = member.Name()
	}
	return strings.Join(names, "+")
}

func (d *ConcatDataset) Len() int {
	return d.total
}

func (d *ConcatDataset) Get(i int) (core.Sample, error) {
	if i < 0 || i >= d.total {
		return core.Sample{}, fmt.Errorf("dataset: index %d out of range for %q (len %d)", i, d.Name(), d.total)
	}
	member, local := d.locate(i)
	return d.members[member].Get(local)
}

// locate finds the member holding global index i and its local offset.
func (d *ConcatDataset) locate(i int) (int, int) {
	lo, hi := 0, len(d.cum)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if i < d.cum[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	start := 0
	if lo > 0 {
		start = d.cum[lo-1]
	}
	return lo, i - start
}

// Members exposes the member datasets in index order.
func (d *ConcatDataset) Members() []core.Dataset {
	return d.members
}
