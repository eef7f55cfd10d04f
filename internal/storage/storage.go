package storage

import (
	"context"

	"heritagechain/internal/model"
)

// Storage defines a sink for plan snapshots.
type Storage interface {
	PutSnapshot(ctx context.Context, snapshot model.PlanSnapshot) error
}
