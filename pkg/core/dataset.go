package core

// Dataset provides indexed access to samples.
type Dataset interface {
	Name() string
	Len() int
	Get(i int) (Sample, error)
}
