package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/hero-pool-platform/internal/board-service/dto"
)

// ReadRepo é o acesso somente-leitura do board ao estado dos pools
type ReadRepo struct {
	DB *sql.DB
}

func (r *ReadRepo) ListEvents(ctx context.Context) ([]dto.Event, error) {
	const q = `
		SELECT id, name, to_char(end_time, 'YYYY-MM-DD"T"HH24:MI:SSZ'), status, COALESCE(winning_hero_id::text, '')
		FROM events
		ORDER BY end_time;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Event
	for rows.Next() {
		var e dto.Event
		if err := rows.Scan(&e.EventID, &e.Name, &e.EndTime, &e.Status, &e.WinningHeroID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ReadRepo) ListHeroes(ctx context.Context, eventID string) ([]dto.Hero, error) {
	const q = `
		SELECT id, name, point_worth
		FROM heroes
		WHERE event_id = $1
		ORDER BY name;
	`
	rows, err := r.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Hero
	for rows.Next() {
		var h dto.Hero
		if err := rows.Scan(&h.HeroID, &h.Name, &h.PointWorth); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetTotalsByEvent é o fallback quando o snapshot não está no cache
func (r *ReadRepo) GetTotalsByEvent(ctx context.Context, eventID string) ([]dto.HeroTotal, error) {
	const q = `
		SELECT id, name, total_points
		FROM heroes
		WHERE event_id = $1
		ORDER BY name;
	`
	rows, err := r.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.HeroTotal
	for rows.Next() {
		var t dto.HeroTotal
		if err := rows.Scan(&t.HeroID, &t.Name, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
