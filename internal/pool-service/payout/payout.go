package payout

import (
	"math"
	"math/big"
)

// Stake é o total apostado por um usuário no herói vencedor,
// já agregado entre apostas próprias e participações sindicadas.
type Stake struct {
	UserID string
	Points int64
}

// Payout é o pagamento bruto apurado para um usuário.
type Payout struct {
	UserID string
	Amount int64
}

// Compute aplica o rateio pari-mutuel: todo o pool (perdedores + vencedores)
// é redistribuído aos vencedores proporcionalmente ao stake de cada um.
//
//	payout = floor(stake * totalPool / winningPool)
//
// O truncamento não é redistribuído; a perda agregada fica abaixo do número
// de vencedores. Com winningPool == 0 ninguém acertou e nada é pago.
func Compute(totalPool, winningPool int64, stakes []Stake) []Payout {
	if winningPool <= 0 || totalPool <= 0 {
		return nil
	}

	out := make([]Payout, 0, len(stakes))
	for _, s := range stakes {
		if s.Points <= 0 {
			continue
		}
		out = append(out, Payout{
			UserID: s.UserID,
			Amount: amount(s.Points, totalPool, winningPool),
		})
	}
	return out
}

// amount calcula floor(points * totalPool / winningPool) sem estourar int64.
// O resultado sempre cabe: points <= winningPool implica payout <= totalPool.
func amount(points, totalPool, winningPool int64) int64 {
	if points <= math.MaxInt64/totalPool {
		return points * totalPool / winningPool
	}
	q := new(big.Int).Mul(big.NewInt(points), big.NewInt(totalPool))
	q.Quo(q, big.NewInt(winningPool))
	return q.Int64()
}
