package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/hero-pool-platform/internal/pool-service/syndicate"
)

// Postgres implementa o ledger do pool: admissão de apostas, fechamento,
// liquidação e leitura de totais/estatísticas.
//
// Toda mutação do pool serializa na linha do evento (SELECT ... FOR UPDATE),
// então admissões concorrentes no mesmo herói nunca perdem atualização do
// agregado, mesmo com múltiplas instâncias do serviço.
type Postgres struct {
	db  *sql.DB
	now func() time.Time // relógio injetável para o cutoff
}

// NewPostgres retorna uma instância do ledger sobre o banco dado
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// AdmitWagerParams agrupa os dados de uma admissão (aposta simples ou sindicada)
type AdmitWagerParams struct {
	EventID  string
	HeroID   string
	PlacedBy string
	Amount   int64
	Shares   []syndicate.Share
}

// AdmitWager valida e admite uma aposta em uma única transação:
// cria a wager e seus shares, incrementa o total corrente do herói e as
// estatísticas de cada participante. Tudo ou nada.
//
// O restante implícito do criador (amount - soma dos shares) é derivado na
// admissão e creditado nas estatísticas do criador.
func (p *Postgres) AdmitWager(ctx context.Context, params AdmitWagerParams) (string, error) {
	remainder, err := syndicate.Resolve(params.Amount, params.Shares)
	if err != nil {
		if errors.Is(err, syndicate.ErrOverAllocated) {
			return "", ErrAllocation
		}
		return "", ErrValidation
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Seção crítica por evento: serializa admissões e a liquidação
	var status string
	var endTime time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT status, end_time FROM events WHERE id=$1 FOR UPDATE`,
		params.EventID).Scan(&status, &endTime)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	} else if err != nil {
		return "", mapTxError(err)
	}

	if status != StatusOpen {
		return "", ErrClosedPool
	}

	// Cutoff: atingido o end_time, o pool fecha nesta mesma transação e a
	// aposta é rejeitada. O fechamento persiste ainda que a aposta não.
	if !p.now().Before(endTime) {
		if _, err = tx.ExecContext(ctx,
			`UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2`,
			StatusClosed, params.EventID); err != nil {
			return "", mapTxError(err)
		}
		if err = tx.Commit(); err != nil {
			return "", mapTxError(err)
		}
		return "", ErrCutoffClosed
	}

	// Herói desconhecido -> NotFound; herói de outro evento -> Validation
	var heroEventID string
	err = tx.QueryRowContext(ctx,
		`SELECT event_id FROM heroes WHERE id=$1`, params.HeroID).Scan(&heroEventID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	} else if err != nil {
		return "", mapTxError(err)
	}
	if heroEventID != params.EventID {
		return "", ErrValidation
	}

	// Todos os participantes precisam existir na fonte de identidade
	userIDs := []string{params.PlacedBy}
	for _, s := range params.Shares {
		userIDs = append(userIDs, s.UserID)
	}
	var known int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT id) FROM users WHERE id = ANY($1)`,
		pq.Array(userIDs)).Scan(&known); err != nil {
		return "", mapTxError(err)
	}
	if known != countDistinct(userIDs) {
		return "", ErrNotFound
	}

	wagerID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wagers (id, event_id, hero_id, placed_by, amount)
		VALUES ($1,$2,$3,$4,$5)`,
		wagerID, params.EventID, params.HeroID, params.PlacedBy, params.Amount); err != nil {
		return "", mapTxError(err)
	}

	for _, s := range params.Shares {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO wager_shares (id, wager_id, user_id, points)
			VALUES ($1,$2,$3,$4)`,
			uuid.NewString(), wagerID, s.UserID, s.Points); err != nil {
			return "", mapTxError(err)
		}
	}

	// Agregado corrente do herói, protegido pelo lock do evento
	if _, err = tx.ExecContext(ctx,
		`UPDATE heroes SET total_points = total_points + $1 WHERE id=$2`,
		params.Amount, params.HeroID); err != nil {
		return "", mapTxError(err)
	}

	// Estatísticas: criador (restante implícito, pode ser zero) + cada share
	if err = recordStake(ctx, tx, params.PlacedBy, params.EventID, params.HeroID, remainder); err != nil {
		return "", mapTxError(err)
	}
	for _, s := range params.Shares {
		if err = recordStake(ctx, tx, s.UserID, params.EventID, params.HeroID, s.Points); err != nil {
			return "", mapTxError(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", mapTxError(err)
	}
	return wagerID, nil
}

// ClosePool transiciona OPEN -> CLOSED. Idempotente: fechar um pool já
// fechado (ou liquidado) não é erro. Retorna o status resultante e se houve
// transição real.
func (p *Postgres) ClosePool(ctx context.Context, eventID string) (string, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", false, ErrNotFound
	} else if err != nil {
		return "", false, mapTxError(err)
	}

	if status != StatusOpen {
		return status, false, tx.Commit() // no-op, preserva CLOSED ou SETTLED
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2`,
		StatusClosed, eventID); err != nil {
		return "", false, mapTxError(err)
	}

	if err = tx.Commit(); err != nil {
		return "", false, mapTxError(err)
	}
	return StatusClosed, true, nil
}

// CloseExpired fecha todos os pools OPEN cujo end_time já passou e retorna
// os ids fechados. Usado pelo pool-close-worker; idempotente por construção.
func (p *Postgres) CloseExpired(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		UPDATE events SET status=$1, updated_at=NOW()
		WHERE status=$2 AND end_time <= NOW()
		RETURNING id`,
		StatusClosed, StatusOpen)
	if err != nil {
		return nil, mapTxError(err)
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

// GetTotals retorna o total corrente por herói. Leitura de snapshot: não
// serializa com admissões em voo.
func (p *Postgres) GetTotals(ctx context.Context, eventID string) ([]HeroTotal, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM events WHERE id=$1)`, eventID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, total_points FROM heroes
		WHERE event_id=$1
		ORDER BY name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HeroTotal
	for rows.Next() {
		var t HeroTotal
		if err := rows.Scan(&t.HeroID, &t.Name, &t.Total); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// countDistinct conta ids únicos preservando a checagem de existência
func countDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
