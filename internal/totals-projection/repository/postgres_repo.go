package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// PostgresRepo lê o estado do pool para montar o snapshot de totais.
// A projeção recalcula a partir das wagers (e não do agregado corrente dos
// heróis) para servir de verificação independente do ledger.
type PostgresRepo struct{ db *sql.DB }

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// SnapshotTotals monta o snapshot corrente de um evento
func (r *PostgresRepo) SnapshotTotals(ctx context.Context, eventID string) (*events.TotalsSnapshot, error) {
	var status string
	if err := r.db.QueryRowContext(ctx,
		`SELECT status FROM events WHERE id=$1`, eventID).Scan(&status); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT h.id, h.name, COALESCE(SUM(w.amount), 0)
		FROM heroes h
		LEFT JOIN wagers w ON w.hero_id = h.id
		WHERE h.event_id = $1
		GROUP BY h.id, h.name
		ORDER BY h.name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &events.TotalsSnapshot{
		EventID:   eventID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	for rows.Next() {
		var t events.HeroTotal
		if err := rows.Scan(&t.HeroID, &t.Name, &t.Total); err != nil {
			return nil, err
		}
		snap.Totals = append(snap.Totals, t)
	}
	return snap, rows.Err()
}
