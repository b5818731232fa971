package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/aiinterface/notifier/internal/model"
)

// ListProfilesByIDs returns the profiles for the given user ids.
// NULL columns are returned as empty strings.
func (r *Repository) ListProfilesByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id::text, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(display_name, '')
		FROM profiles
		WHERE id::text = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}
