package repo

import (
	"context"
	"database/sql"
)

// Agregador de estatísticas por (usuário, evento, herói). As funções abaixo
// são os únicos escritores de user_stats e rodam sempre dentro da transação
// da admissão ou da liquidação.

// execer é o subconjunto de *sql.Tx usado pelo agregador; permite exercitar
// os guards de consistência sem um banco real
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// recordStake cria a linha se ausente, senão incrementa points e bets.
// Chamado uma vez por participação (aposta ou share) durante a admissão.
func recordStake(ctx context.Context, tx execer, userID, eventID, heroID string, points int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, event_id, hero_id, points, bets)
		VALUES ($1,$2,$3,$4,1)
		ON CONFLICT (user_id, event_id, hero_id)
		DO UPDATE SET points = user_stats.points + EXCLUDED.points,
		              bets   = user_stats.bets + 1`,
		userID, eventID, heroID, points)
	return err
}

// recordEarnings grava o pagamento bruto da liquidação. Write-once: uma
// segunda gravação sem reset da linha é uma violação de consistência.
func recordEarnings(ctx context.Context, tx execer, userID, eventID, heroID string, payout int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE user_stats SET earnings=$1
		WHERE user_id=$2 AND event_id=$3 AND hero_id=$4 AND earnings=0`,
		payout, userID, eventID, heroID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEarningsRewrite
	}
	return nil
}

// GetUserStats retorna as linhas agregadas de um usuário; eventID é opcional
func (p *Postgres) GetUserStats(ctx context.Context, userID, eventID string) ([]UserStats, error) {
	q := `
		SELECT user_id, event_id, hero_id, points, bets, earnings
		FROM user_stats
		WHERE user_id=$1`
	args := []any{userID}
	if eventID != "" {
		q += ` AND event_id=$2`
		args = append(args, eventID)
	}
	q += ` ORDER BY event_id, hero_id`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserStats
	for rows.Next() {
		var s UserStats
		if err := rows.Scan(&s.UserID, &s.EventID, &s.HeroID, &s.Points, &s.Bets, &s.Earnings); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
