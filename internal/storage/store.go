package storage

import (
	"context"

	"evonet/internal/model"
)

// Store persists model snapshots and the modification lineage of runs.
type Store interface {
	Init(ctx context.Context) error
	SaveModel(ctx context.Context, snapshot model.Snapshot) error
	GetModel(ctx context.Context, id string) (model.Snapshot, bool, error)
	ListModels(ctx context.Context) ([]string, error)
	DeleteModel(ctx context.Context, id string) error
	SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error
	GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error)
}
