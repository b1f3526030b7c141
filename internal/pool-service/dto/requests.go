package dto

// ShareInput é a fatia de um co-investidor em uma aposta sindicada
type ShareInput struct {
	UserID string `json:"userId"`
	Points int64  `json:"points"`
}

type PlaceWagerRequest struct {
	EventID string       `json:"eventId"`
	HeroID  string       `json:"heroId"`
	UserID  string       `json:"userId"` // criador da aposta
	Amount  int64        `json:"amount"` // total de pontos comprometidos
	Shares  []ShareInput `json:"shares,omitempty"`
}

type SettleRequest struct {
	WinningHeroID string `json:"winningHeroId"`
}
