package dto

type PlaceWagerResponse struct {
	WagerID string `json:"wagerId"`
	Status  string `json:"status"` // ADMITTED
}

type CloseResponse struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"` // CLOSED
}

type PayoutItem struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
}

type SettleResponse struct {
	EventID       string       `json:"eventId"`
	WinningHeroID string       `json:"winningHeroId"`
	TotalPool     int64        `json:"total_pool"`
	WinningPool   int64        `json:"winning_pool"`
	Payouts       []PayoutItem `json:"payouts"`
}

type HeroTotalItem struct {
	HeroID string `json:"heroId"`
	Name   string `json:"name"`
	Total  int64  `json:"total"`
}

type TotalsResponse struct {
	EventID string          `json:"eventId"`
	Totals  []HeroTotalItem `json:"totals"`
}

type UserStatsItem struct {
	EventID  string `json:"eventId"`
	HeroID   string `json:"heroId"`
	Points   int64  `json:"points"`
	Bets     int    `json:"bets"`
	Earnings int64  `json:"earnings"`
}
