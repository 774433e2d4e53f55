// internal/cards/postgres.go
package cards

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool used to read the catalog.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectCards = `
	SELECT word, forbidden_terms
	FROM taboo_cards
	ORDER BY word
`

// LoadFromDB reads every row of the taboo_cards table.
func LoadFromDB(ctx context.Context, q Querier) ([]Card, error) {
	rows, err := q.Query(ctx, selectCards)
	if err != nil {
		return nil, fmt.Errorf("query taboo_cards: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.Word, &c.ForbiddenTerms); err != nil {
			return nil, fmt.Errorf("scan taboo_cards row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taboo_cards: %w", err)
	}
	return out, nil
}
