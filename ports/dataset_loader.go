package ports

import (
	"context"

	"cyberguard/domain/dataset"
)

// DatasetLoader supplies typed tables for the dashboard datasets.
// An absent source yields an error wrapping core.ErrDatasetMissing that
// names the dataset.
type DatasetLoader interface {
	Load(ctx context.Context, kind dataset.Kind) (*dataset.Table, error)
}

// LoaderFunc adapts a function to DatasetLoader
type LoaderFunc func(ctx context.Context, kind dataset.Kind) (*dataset.Table, error)

func (f LoaderFunc) Load(ctx context.Context, kind dataset.Kind) (*dataset.Table, error) {
	return f(ctx, kind)
}
