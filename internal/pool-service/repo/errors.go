package repo

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound: evento, herói ou usuário desconhecido
	ErrNotFound = errors.New("not found")

	// ErrValidation: payload malformado ou herói de outro evento
	ErrValidation = errors.New("invalid wager")

	// ErrAllocation: soma dos shares excede o valor da aposta
	ErrAllocation = errors.New("share points exceed wager amount")

	// ErrClosedPool: aposta após o cutoff ou fechamento do pool
	ErrClosedPool = errors.New("betting closed")

	// ErrCutoffClosed: a própria admissão encontrou o end_time vencido e
	// fechou o pool antes de rejeitar a aposta. Quem tratar esse erro deve
	// publicar o pool_closed que o sweep não verá mais.
	ErrCutoffClosed = fmt.Errorf("cutoff reached: %w", ErrClosedPool)

	// ErrAlreadySettled: evento já liquidado; retry é seguro
	ErrAlreadySettled = errors.New("event already settled")

	// ErrConcurrencyConflict: falha de serialização da transação.
	// Única classe elegível para retry automático (nenhum efeito parcial).
	ErrConcurrencyConflict = errors.New("transaction serialization conflict")

	// ErrEarningsRewrite: earnings já gravado para o mesmo (user, event, hero).
	// Erro fatal de consistência: earnings reflete uma única liquidação.
	ErrEarningsRewrite = errors.New("earnings already recorded")
)

// isSerializationFailure identifica erros do Postgres que podem ser
// resolvidos com retry: serialization_failure (40001) e deadlock_detected (40P01)
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// mapTxError traduz falhas de serialização para ErrConcurrencyConflict
// e mantém os demais erros inalterados
func mapTxError(err error) error {
	if isSerializationFailure(err) {
		return ErrConcurrencyConflict
	}
	return err
}
