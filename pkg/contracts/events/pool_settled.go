package events

import "time"

// Pagamento individual apurado na liquidação
type Payout struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// Evento emitido após a liquidação pari-mutuel de um evento.
// TotalPool/WinningPool ficam registrados para auditoria do rateio.
type PoolSettled struct {
	EventID       string    `json:"event_id"`
	WinningHeroID string    `json:"winning_hero_id"`
	TotalPool     int64     `json:"total_pool"`
	WinningPool   int64     `json:"winning_pool"`
	Payouts       []Payout  `json:"payouts"`
	Ts            time.Time `json:"ts"`
}
