package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/aiinterface/notifier/internal/model"
)

// ListCreditsByUserIDs returns the credit rows for the given users.
// Users without a row are simply absent from the result.
func (r *Repository) ListCreditsByUserIDs(ctx context.Context, userIDs []string) ([]*model.Credit, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT user_id::text, COALESCE(balance::text, '')
		FROM user_credits
		WHERE user_id::text = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("query user credits: %w", err)
	}
	defer rows.Close()

	var credits []*model.Credit
	for rows.Next() {
		var c model.Credit
		if err := rows.Scan(&c.UserID, &c.Balance); err != nil {
			return nil, fmt.Errorf("scan user credit: %w", err)
		}
		credits = append(credits, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user credits: %w", err)
	}

	return credits, nil
}
