package core

import "errors"

var (
	// ErrInvalidConfig marks configuration values that cannot produce a
	// working training run.
	ErrInvalidConfig = errors.New("core: invalid configuration")

	// ErrUnknownDatasetType marks dispatch calls naming a split outside
	// train/val/test.
	ErrUnknownDatasetType = errors.New("core: unknown dataset type")
)
