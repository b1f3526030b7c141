package repo

import "time"

// Status do evento (máquina de estados: OPEN -> CLOSED -> SETTLED)
const (
	StatusOpen    = "OPEN"
	StatusClosed  = "CLOSED"
	StatusSettled = "SETTLED"
)

// Event é o modelo persistido de um evento com pool de apostas
type Event struct {
	ID            string
	Name          string
	EndTime       time.Time
	Status        string
	WinningHeroID string // vazio até a liquidação
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Hero pertence a exatamente um evento; point_worth é peso informativo
// e não entra na aritmética do rateio
type Hero struct {
	ID          string
	EventID     string
	Name        string
	PointWorth  int
	TotalPoints int64 // agregado corrente, atualizado na mesma transação da admissão
	CreatedAt   time.Time
}

// Wager é imutável após criada
type Wager struct {
	ID        string
	EventID   string
	HeroID    string
	PlacedBy  string
	Amount    int64
	CreatedAt time.Time
}

// UserStats é a linha agregada por (usuário, evento, herói)
type UserStats struct {
	UserID   string
	EventID  string
	HeroID   string
	Points   int64
	Bets     int
	Earnings int64
}

// HeroTotal é o total corrente de um herói dentro do pool
type HeroTotal struct {
	HeroID string
	Name   string
	Total  int64
}

// SettlementResult é o resultado durável de uma liquidação
type SettlementResult struct {
	EventID       string
	WinningHeroID string
	TotalPool     int64
	WinningPool   int64
	Payouts       []UserPayout
}

// UserPayout é o pagamento bruto de um vencedor
type UserPayout struct {
	UserID string
	Amount int64
}
