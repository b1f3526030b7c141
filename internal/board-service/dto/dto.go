package dto

// Event representa um evento com pool de apostas aberto, fechado ou liquidado
type Event struct {
	EventID       string `json:"eventId"`
	Name          string `json:"name"`
	EndTime       string `json:"endTime"`
	Status        string `json:"status"`
	WinningHeroID string `json:"winningHeroId,omitempty"`
}

// Hero representa um competidor de um evento
type Hero struct {
	HeroID     string `json:"heroId"`
	Name       string `json:"name"`
	PointWorth int    `json:"pointWorth"` // peso informativo, fora do rateio
}

// HeroTotal representa o total corrente apostado em um herói
type HeroTotal struct {
	HeroID string `json:"heroId"`
	Name   string `json:"name"`
	Total  int64  `json:"total"`
}
