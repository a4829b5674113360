package ports

import (
	"context"

	"semflow/domain/core"
	"semflow/domain/model"
)

// SelectionRepository persists accepted groups and demographics per dataset
// so a returning session can hydrate without recomputation. The engine is
// agnostic to the storage medium.
type SelectionRepository interface {
	Load(ctx context.Context, datasetID core.DatasetID) (*model.SelectionSet, error)
	Save(ctx context.Context, datasetID core.DatasetID, selections *model.SelectionSet) error
}
