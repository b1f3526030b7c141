package events

import "time"

// Total corrente de um herói dentro do pool
type HeroTotal struct {
	HeroID string `json:"hero_id"`
	Name   string `json:"name"`
	Total  int64  `json:"total"`
}

// Snapshot dos totais de um evento, projetado pelo totals-projection-worker
// a partir dos eventos wager_placed. Alimenta o cache Redis e o broadcast
// WebSocket do board-service.
type TotalsSnapshot struct {
	EventID   string      `json:"event_id"`
	Status    string      `json:"status"`
	Totals    []HeroTotal `json:"totals"`
	UpdatedAt time.Time   `json:"updated_at"`
}
