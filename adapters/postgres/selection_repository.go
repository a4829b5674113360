// Package postgres persists accepted groups and demographic selections per
// dataset. The workflow stays usable when the database is down: callers
// treat every error here as retryable and non-fatal.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"semflow/domain/core"
	"semflow/domain/model"
	"semflow/ports"
)

// selectionRepository implements ports.SelectionRepository
type selectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository creates a selection repository backed by postgres.
func NewSelectionRepository(db *sqlx.DB) ports.SelectionRepository {
	return &selectionRepository{db: db}
}

// Schema is the table this repository expects. Applied by the operator or a
// migration step, not by the repository itself.
const Schema = `
CREATE TABLE IF NOT EXISTS dataset_selections (
	dataset_id   TEXT PRIMARY KEY,
	groups       JSONB NOT NULL DEFAULT '[]',
	demographics JSONB NOT NULL DEFAULT '[]',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Load hydrates the accepted selections for a dataset. A dataset with no
// saved selections yields an empty set, not an error.
func (r *selectionRepository) Load(ctx context.Context, datasetID core.DatasetID) (*model.SelectionSet, error) {
	query := `SELECT groups, demographics FROM dataset_selections WHERE dataset_id = $1`

	var groupsJSON, demographicsJSON []byte
	err := r.db.QueryRowContext(ctx, query, datasetID).Scan(&groupsJSON, &demographicsJSON)
	if err == sql.ErrNoRows {
		return &model.SelectionSet{}, nil
	}
	if err != nil {
		return nil, core.NewPersistenceError("load selections", err)
	}

	var selections model.SelectionSet
	if len(groupsJSON) > 0 {
		if err := json.Unmarshal(groupsJSON, &selections.Groups); err != nil {
			return nil, core.NewPersistenceError("decode groups", err)
		}
	}
	if len(demographicsJSON) > 0 {
		if err := json.Unmarshal(demographicsJSON, &selections.Demographics); err != nil {
			return nil, core.NewPersistenceError("decode demographics", err)
		}
	}
	return &selections, nil
}

// Save upserts the full selection set for a dataset.
func (r *selectionRepository) Save(ctx context.Context, datasetID core.DatasetID, selections *model.SelectionSet) error {
	groupsJSON, err := json.Marshal(selections.Groups)
	if err != nil {
		return core.NewPersistenceError("encode groups", err)
	}
	demographicsJSON, err := json.Marshal(selections.Demographics)
	if err != nil {
		return core.NewPersistenceError("encode demographics", err)
	}

	query := `INSERT INTO dataset_selections (dataset_id, groups, demographics, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (dataset_id) DO UPDATE SET
		groups = EXCLUDED.groups,
		demographics = EXCLUDED.demographics,
		updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, datasetID, groupsJSON, demographicsJSON, time.Now()); err != nil {
		return core.NewPersistenceError("save selections", err)
	}
	return nil
}
