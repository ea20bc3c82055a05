package postgres

import (
	"context"
	"database/sql"
	"errors"

	"kittenfeed/internal/domain"
)

var _ domain.StateRepository = (*DB)(nil)

// LoadState returns the stored document for familyID, or nil if none exists.
func (d *DB) LoadState(ctx context.Context, familyID string) ([]byte, error) {
	var state []byte
	err := d.sql.QueryRowContext(ctx,
		"SELECT state FROM family_states WHERE family_id=$1;", familyID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// SaveState upserts the document for familyID.
func (d *DB) SaveState(ctx context.Context, familyID string, state []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO family_states(family_id, state, updated_at) VALUES($1, $2, now())
		 ON CONFLICT (family_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at;`,
		familyID, string(state),
	)
	return err
}

// ListFamilies returns stored family ids, most recently updated first.
func (d *DB) ListFamilies(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT family_id FROM family_states ORDER BY updated_at DESC;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
