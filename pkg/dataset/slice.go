package dataset

import (
	"fmt"

	"github.com/tirkarthi/mmf/pkg/core"
)

// SliceDataset serves samples from memory.
type SliceDataset struct {
	NameHint string
	Items    []core.Sample
}

func NewSliceDataset(samples []core.Sample, name string) *SliceDataset {
	if name == "" {
		name = "slice"
	}
	return &SliceDataset{NameHint: name, Items: samples}
}

func (d *SliceDataset) Name() string {
	return d.NameHint
}

func (d *SliceDataset) Len() int {
	return len(d.Items)
}

func (d *SliceDataset) Get(i int) (core.Sample, error) {
	if i < 0 || i >= len(d.Items) {
		return core.Sample{}, fmt.Errorf("dataset: index %d out of range for %q (len %d)", i, d.NameHint, len(d.Items))
	}
	return d.Items[i], nil
}
