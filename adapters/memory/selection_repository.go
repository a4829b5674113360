// Package memory provides in-process implementations of persistence ports,
// used when no database is configured and in tests.
package memory

import (
	"context"
	"sync"

	"semflow/domain/core"
	"semflow/domain/model"
	"semflow/ports"
)

type selectionRepository struct {
	mu   sync.RWMutex
	sets map[core.DatasetID]*model.SelectionSet
}

// NewSelectionRepository creates an in-memory selection repository.
func NewSelectionRepository() ports.SelectionRepository {
	return &selectionRepository{sets: make(map[core.DatasetID]*model.SelectionSet)}
}

func (r *selectionRepository) Load(ctx context.Context, datasetID core.DatasetID) (*model.SelectionSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.sets[datasetID]
	if !ok {
		return &model.SelectionSet{}, nil
	}
	out := &model.SelectionSet{
		Groups:       append([]*model.VariableGroup(nil), stored.Groups...),
		Demographics: append([]model.DemographicSuggestion(nil), stored.Demographics...),
	}
	return out, nil
}

func (r *selectionRepository) Save(ctx context.Context, datasetID core.DatasetID, selections *model.SelectionSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sets[datasetID] = &model.SelectionSet{
		Groups:       append([]*model.VariableGroup(nil), selections.Groups...),
		Demographics: append([]model.DemographicSuggestion(nil), selections.Demographics...),
	}
	return nil
}
