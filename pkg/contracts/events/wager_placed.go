package events

// Participação de um co-investidor em uma aposta sindicada
type WagerShare struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

// Evento publicado no tópico "wager_placed" após a admissão de uma aposta
type WagerPlaced struct {
	WagerID  string       `json:"wager_id"`
	EventID  string       `json:"event_id"`
	HeroID   string       `json:"hero_id"`
	PlacedBy string       `json:"placed_by"`
	Amount   int64        `json:"amount"` // total de pontos comprometidos
	Shares   []WagerShare `json:"shares,omitempty"`
	TsUnixMs int64        `json:"ts_unix_ms"`
}
