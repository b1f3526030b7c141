package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/hero-pool-platform/internal/pool-service/payout"
)

// Settle executa a liquidação pari-mutuel de um evento, exatamente uma vez.
//
// Roda como um único commit atômico: fechamento implícito (se ainda aberto),
// apuração dos pools, gravação dos earnings e transição para SETTLED. Qualquer
// falha deixa o evento em CLOSED e a liquidação pode ser repetida com
// segurança. O lock na linha do evento atua como barreira: admissões
// concorrentes ainda não commitadas passam a falhar com ErrClosedPool.
func (p *Postgres) Settle(ctx context.Context, eventID, winningHeroID string) (*SettlementResult, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, mapTxError(err)
	}

	// Herói vencedor precisa existir e pertencer ao evento
	var heroEventID string
	err = tx.QueryRowContext(ctx,
		`SELECT event_id FROM heroes WHERE id=$1`, winningHeroID).Scan(&heroEventID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, mapTxError(err)
	}
	if heroEventID != eventID {
		return nil, ErrNotFound
	}

	if status == StatusSettled {
		return nil, ErrAlreadySettled
	}

	// Fechamento implícito na mesma transação: elimina a janela entre
	// fechar e liquidar onde uma aposta ainda poderia entrar
	if status == StatusOpen {
		if _, err = tx.ExecContext(ctx,
			`UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2`,
			StatusClosed, eventID); err != nil {
			return nil, mapTxError(err)
		}
	}

	var totalPool, winningPool int64
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount),0) FROM wagers WHERE event_id=$1`,
		eventID).Scan(&totalPool); err != nil {
		return nil, mapTxError(err)
	}
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount),0) FROM wagers WHERE event_id=$1 AND hero_id=$2`,
		eventID, winningHeroID).Scan(&winningPool); err != nil {
		return nil, mapTxError(err)
	}

	result := &SettlementResult{
		EventID:       eventID,
		WinningHeroID: winningHeroID,
		TotalPool:     totalPool,
		WinningPool:   winningPool,
	}

	// winningPool == 0: ninguém acertou, todo stake é perdido e o evento
	// ainda assim transiciona para SETTLED
	if winningPool > 0 {
		stakes, err := winnerStakes(ctx, tx, eventID, winningHeroID)
		if err != nil {
			return nil, mapTxError(err)
		}

		for _, po := range payout.Compute(totalPool, winningPool, stakes) {
			if err = recordEarnings(ctx, tx, po.UserID, eventID, winningHeroID, po.Amount); err != nil {
				return nil, mapTxError(err)
			}
			result.Payouts = append(result.Payouts, UserPayout{UserID: po.UserID, Amount: po.Amount})
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE events SET status=$1, winning_hero_id=$2, updated_at=NOW() WHERE id=$3`,
		StatusSettled, winningHeroID, eventID); err != nil {
		return nil, mapTxError(err)
	}

	if err = tx.Commit(); err != nil {
		return nil, mapTxError(err)
	}
	return result, nil
}

// winnerStakes agrega o stake de cada usuário no herói vencedor.
// user_stats.points já soma apostas próprias e shares sindicados, mantido
// pela admissão na mesma transação de cada wager.
func winnerStakes(ctx context.Context, tx *sql.Tx, eventID, winningHeroID string) ([]payout.Stake, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT user_id, points FROM user_stats
		WHERE event_id=$1 AND hero_id=$2 AND points > 0
		ORDER BY user_id
		FOR UPDATE`,
		eventID, winningHeroID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payout.Stake
	for rows.Next() {
		var s payout.Stake
		if err := rows.Scan(&s.UserID, &s.Points); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSettlementResult reconstrói o resultado durável de uma liquidação a
// partir de user_stats. Usado para responder retries de settle com o
// resultado já registrado.
func (p *Postgres) GetSettlementResult(ctx context.Context, eventID string) (*SettlementResult, error) {
	var status string
	var winningHeroID sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT status, winning_hero_id FROM events WHERE id=$1`,
		eventID).Scan(&status, &winningHeroID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if status != StatusSettled || !winningHeroID.Valid {
		return nil, ErrNotFound
	}

	result := &SettlementResult{EventID: eventID, WinningHeroID: winningHeroID.String}

	if err = p.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount),0) FROM wagers WHERE event_id=$1`,
		eventID).Scan(&result.TotalPool); err != nil {
		return nil, err
	}
	if err = p.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount),0) FROM wagers WHERE event_id=$1 AND hero_id=$2`,
		eventID, result.WinningHeroID).Scan(&result.WinningPool); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, earnings FROM user_stats
		WHERE event_id=$1 AND hero_id=$2 AND earnings > 0
		ORDER BY user_id`,
		eventID, result.WinningHeroID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var po UserPayout
		if err := rows.Scan(&po.UserID, &po.Amount); err != nil {
			return nil, err
		}
		result.Payouts = append(result.Payouts, po)
	}
	return result, rows.Err()
}
