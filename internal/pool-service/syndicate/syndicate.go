package syndicate

import "errors"

var (
	ErrNonPositiveAmount = errors.New("wager amount must be positive")
	ErrNonPositiveShare  = errors.New("share points must be positive")
	ErrOverAllocated     = errors.New("share points exceed wager amount")
)

// Share é a fatia de um co-investidor em uma aposta sindicada
type Share struct {
	UserID string
	Points int64
}

// Resolve valida a alocação de uma aposta sindicada e devolve o restante
// implícito do criador (amount - soma dos shares). O restante é derivado aqui
// na admissão e nunca persistido separadamente.
//
// Invariante: soma(shares) + restante == amount, restante >= 0.
func Resolve(amount int64, shares []Share) (remainder int64, err error) {
	if amount <= 0 {
		return 0, ErrNonPositiveAmount
	}

	var allocated int64
	for _, s := range shares {
		if s.Points <= 0 {
			return 0, ErrNonPositiveShare
		}
		allocated += s.Points
	}

	if allocated > amount {
		return 0, ErrOverAllocated
	}

	return amount - allocated, nil
}
