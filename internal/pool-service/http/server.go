package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/internal/pool-service/dto"
	"github.com/radieske/hero-pool-platform/internal/pool-service/repo"
	"github.com/radieske/hero-pool-platform/internal/pool-service/syndicate"
	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// Ledger define as operações do pool usadas pelos handlers HTTP
type Ledger interface {
	AdmitWager(ctx context.Context, params repo.AdmitWagerParams) (string, error)
	ClosePool(ctx context.Context, eventID string) (string, bool, error)
	Settle(ctx context.Context, eventID, winningHeroID string) (*repo.SettlementResult, error)
	GetSettlementResult(ctx context.Context, eventID string) (*repo.SettlementResult, error)
	GetTotals(ctx context.Context, eventID string) ([]repo.HeroTotal, error)
	GetUserStats(ctx context.Context, userID, eventID string) ([]repo.UserStats, error)
}

// Publisher publica os eventos de domínio no Kafka
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error
	PublishPoolClosed(ctx context.Context, e events.PoolClosed) error
	PublishPoolSettled(ctx context.Context, e events.PoolSettled) error
}

// Server expõe a API de escrita do pool: admissão, fechamento e liquidação
type Server struct {
	log    *zap.Logger
	ledger Ledger
	publ   Publisher
}

func NewServer(log *zap.Logger, l Ledger, p Publisher) *Server {
	return &Server{log: log, ledger: l, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/wagers", s.placeWager)  // POST
	mux.HandleFunc("/v1/events/", s.eventRoute) // POST close|settle, GET totals
	mux.HandleFunc("/v1/stats", s.userStats)    // GET ?userId=...&eventId=...
	return mux
}

// Tentativas de admissão sob conflito de serialização. Só essa classe de
// erro é repetida: a transação abortada não deixa efeito parcial.
const admitRetries = 3

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.EventID == "" || req.HeroID == "" || req.UserID == "" || req.Amount <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	params := repo.AdmitWagerParams{
		EventID:  req.EventID,
		HeroID:   req.HeroID,
		PlacedBy: req.UserID,
		Amount:   req.Amount,
	}
	for _, sh := range req.Shares {
		params.Shares = append(params.Shares, syndicate.Share{UserID: sh.UserID, Points: sh.Points})
	}

	var wagerID string
	var err error
	for attempt := 0; attempt < admitRetries; attempt++ {
		wagerID, err = s.ledger.AdmitWager(r.Context(), params)
		if !errors.Is(err, repo.ErrConcurrencyConflict) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	if err != nil {
		// Cutoff descoberto na admissão: o pool acabou de fechar e o sweep
		// não vai mais enxergar essa transição, então o evento sai daqui
		if errors.Is(err, repo.ErrCutoffClosed) {
			evt := events.PoolClosed{EventID: req.EventID, Reason: "CUTOFF", Ts: time.Now()}
			if perr := s.publ.PublishPoolClosed(r.Context(), evt); perr != nil {
				s.log.Warn("publish pool_closed", zap.Error(perr))
			}
		}
		s.writeError(w, err)
		return
	}

	evt := events.WagerPlaced{
		WagerID:  wagerID,
		EventID:  req.EventID,
		HeroID:   req.HeroID,
		PlacedBy: req.UserID,
		Amount:   req.Amount,
	}
	for _, sh := range req.Shares {
		evt.Shares = append(evt.Shares, events.WagerShare{UserID: sh.UserID, Points: sh.Points})
	}
	if err := s.publ.PublishWagerPlaced(r.Context(), evt); err != nil {
		s.log.Warn("publish wager_placed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, dto.PlaceWagerResponse{WagerID: wagerID, Status: "ADMITTED"})
}

// eventRoute despacha /v1/events/{id}/close|settle|totals
func (s *Server) eventRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/events/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	eventID, action := parts[0], parts[1]

	switch {
	case action == "close" && r.Method == http.MethodPost:
		s.closePool(w, r, eventID)
	case action == "settle" && r.Method == http.MethodPost:
		s.settle(w, r, eventID)
	case action == "totals" && r.Method == http.MethodGet:
		s.totals(w, r, eventID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) closePool(w http.ResponseWriter, r *http.Request, eventID string) {
	status, closed, err := s.ledger.ClosePool(r.Context(), eventID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if closed {
		evt := events.PoolClosed{EventID: eventID, Reason: "EXPLICIT", Ts: time.Now()}
		if err := s.publ.PublishPoolClosed(r.Context(), evt); err != nil {
			s.log.Warn("publish pool_closed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.CloseResponse{EventID: eventID, Status: status})
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request, eventID string) {
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.WinningHeroID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	result, err := s.ledger.Settle(r.Context(), eventID, req.WinningHeroID)
	if errors.Is(err, repo.ErrAlreadySettled) {
		// Retry seguro: responde com o resultado durável já registrado
		prior, perr := s.ledger.GetSettlementResult(r.Context(), eventID)
		if perr != nil {
			http.Error(w, "already settled", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, settleResponse(prior))
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	evt := events.PoolSettled{
		EventID:       result.EventID,
		WinningHeroID: result.WinningHeroID,
		TotalPool:     result.TotalPool,
		WinningPool:   result.WinningPool,
		Ts:            time.Now(),
	}
	for _, po := range result.Payouts {
		evt.Payouts = append(evt.Payouts, events.Payout{UserID: po.UserID, Amount: po.Amount})
	}
	if err := s.publ.PublishPoolSettled(r.Context(), evt); err != nil {
		s.log.Warn("publish pool_settled", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, settleResponse(result))
}

func (s *Server) totals(w http.ResponseWriter, r *http.Request, eventID string) {
	totals, err := s.ledger.GetTotals(r.Context(), eventID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := dto.TotalsResponse{EventID: eventID, Totals: []dto.HeroTotalItem{}}
	for _, t := range totals {
		resp.Totals = append(resp.Totals, dto.HeroTotalItem{HeroID: t.HeroID, Name: t.Name, Total: t.Total})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	stats, err := s.ledger.GetUserStats(r.Context(), userID, r.URL.Query().Get("eventId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]dto.UserStatsItem, 0, len(stats))
	for _, st := range stats {
		out = append(out, dto.UserStatsItem{
			EventID:  st.EventID,
			HeroID:   st.HeroID,
			Points:   st.Points,
			Bets:     st.Bets,
			Earnings: st.Earnings,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// writeError traduz a taxonomia do ledger para status HTTP
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrValidation):
		http.Error(w, "invalid wager", http.StatusBadRequest)
	case errors.Is(err, repo.ErrAllocation):
		http.Error(w, "share points exceed wager amount", http.StatusUnprocessableEntity)
	case errors.Is(err, repo.ErrClosedPool):
		http.Error(w, "betting closed", http.StatusConflict)
	case errors.Is(err, repo.ErrConcurrencyConflict):
		http.Error(w, "try again", http.StatusServiceUnavailable)
	default:
		s.log.Error("internal", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func settleResponse(r *repo.SettlementResult) dto.SettleResponse {
	resp := dto.SettleResponse{
		EventID:       r.EventID,
		WinningHeroID: r.WinningHeroID,
		TotalPool:     r.TotalPool,
		WinningPool:   r.WinningPool,
		Payouts:       []dto.PayoutItem{},
	}
	for _, po := range r.Payouts {
		resp.Payouts = append(resp.Payouts, dto.PayoutItem{UserID: po.UserID, Amount: po.Amount})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
