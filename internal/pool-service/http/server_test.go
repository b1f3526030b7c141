package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/internal/pool-service/dto"
	"github.com/radieske/hero-pool-platform/internal/pool-service/repo"
	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// fakeLedger devolve respostas programadas e grava as chamadas recebidas
type fakeLedger struct {
	admitErrs  []error // consumidos a cada chamada; nil = sucesso
	admitCalls int
	lastParams repo.AdmitWagerParams

	closeStatus     string
	closeTransition bool
	closeErr        error

	settleResult *repo.SettlementResult
	settleErr    error
	priorResult  *repo.SettlementResult

	totals []repo.HeroTotal
	stats  []repo.UserStats
}

func (f *fakeLedger) AdmitWager(_ context.Context, p repo.AdmitWagerParams) (string, error) {
	f.lastParams = p
	var err error
	if f.admitCalls < len(f.admitErrs) {
		err = f.admitErrs[f.admitCalls]
	}
	f.admitCalls++
	if err != nil {
		return "", err
	}
	return "wager-1", nil
}

func (f *fakeLedger) ClosePool(context.Context, string) (string, bool, error) {
	return f.closeStatus, f.closeTransition, f.closeErr
}

func (f *fakeLedger) Settle(context.Context, string, string) (*repo.SettlementResult, error) {
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	return f.settleResult, nil
}

func (f *fakeLedger) GetSettlementResult(context.Context, string) (*repo.SettlementResult, error) {
	if f.priorResult == nil {
		return nil, repo.ErrNotFound
	}
	return f.priorResult, nil
}

func (f *fakeLedger) GetTotals(context.Context, string) ([]repo.HeroTotal, error) {
	return f.totals, nil
}

func (f *fakeLedger) GetUserStats(context.Context, string, string) ([]repo.UserStats, error) {
	return f.stats, nil
}

// fakePublisher só registra o que seria publicado
type fakePublisher struct {
	placed  []events.WagerPlaced
	closed  []events.PoolClosed
	settled []events.PoolSettled
}

func (f *fakePublisher) PublishWagerPlaced(_ context.Context, e events.WagerPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

func (f *fakePublisher) PublishPoolClosed(_ context.Context, e events.PoolClosed) error {
	f.closed = append(f.closed, e)
	return nil
}

func (f *fakePublisher) PublishPoolSettled(_ context.Context, e events.PoolSettled) error {
	f.settled = append(f.settled, e)
	return nil
}

func newTestServer(l *fakeLedger) (*Server, *fakePublisher) {
	p := &fakePublisher{}
	return NewServer(zap.NewNop(), l, p), p
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlaceWagerOK(t *testing.T) {
	ledger := &fakeLedger{}
	srv, pub := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
		EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 100,
		Shares: []dto.ShareInput{{UserID: "u2", Points: 40}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp dto.PlaceWagerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.WagerID != "wager-1" || resp.Status != "ADMITTED" {
		t.Fatalf("resp = %+v", resp)
	}

	if ledger.lastParams.Amount != 100 || len(ledger.lastParams.Shares) != 1 {
		t.Fatalf("params = %+v", ledger.lastParams)
	}
	if len(pub.placed) != 1 || pub.placed[0].WagerID != "wager-1" {
		t.Fatalf("published = %+v", pub.placed)
	}
}

func TestPlaceWagerInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(&fakeLedger{})

	rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
		EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPlaceWagerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repo.ErrClosedPool, http.StatusConflict},
		{repo.ErrAllocation, http.StatusUnprocessableEntity},
		{repo.ErrValidation, http.StatusBadRequest},
		{repo.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		ledger := &fakeLedger{admitErrs: []error{tc.err}}
		srv, pub := newTestServer(ledger)

		rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
			EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 10,
		})
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		if len(pub.placed) != 0 {
			t.Errorf("%v: rejected wager must not publish", tc.err)
		}
	}
}

func TestPlaceWagerRetriesSerializationConflict(t *testing.T) {
	// duas falhas de serialização e depois sucesso: dentro do limite de retry
	ledger := &fakeLedger{admitErrs: []error{repo.ErrConcurrencyConflict, repo.ErrConcurrencyConflict, nil}}
	srv, _ := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
		EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after retries", rec.Code)
	}
	if ledger.admitCalls != 3 {
		t.Fatalf("admit calls = %d, want 3", ledger.admitCalls)
	}
}

func TestPlaceWagerGivesUpAfterRetries(t *testing.T) {
	ledger := &fakeLedger{admitErrs: []error{
		repo.ErrConcurrencyConflict, repo.ErrConcurrencyConflict, repo.ErrConcurrencyConflict,
	}}
	srv, _ := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
		EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 10,
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if ledger.admitCalls != admitRetries {
		t.Fatalf("admit calls = %d, want %d", ledger.admitCalls, admitRetries)
	}
}

func TestClosePoolPublishesOnlyOnTransition(t *testing.T) {
	ledger := &fakeLedger{closeStatus: repo.StatusClosed, closeTransition: true}
	srv, pub := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/events/e1/close", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(pub.closed) != 1 || pub.closed[0].Reason != "EXPLICIT" {
		t.Fatalf("published = %+v", pub.closed)
	}

	// fechamento repetido: no-op, sem novo evento
	ledger.closeTransition = false
	rec = postJSON(t, srv.Router(), "/v1/events/e1/close", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("idempotent close status = %d", rec.Code)
	}
	if len(pub.closed) != 1 {
		t.Fatalf("no-op close must not publish, got %d events", len(pub.closed))
	}
}

func TestClosePoolReportsSettledStatus(t *testing.T) {
	// fechar um pool já liquidado é no-op e a resposta reflete o status real
	ledger := &fakeLedger{closeStatus: repo.StatusSettled, closeTransition: false}
	srv, pub := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/events/e1/close", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp dto.CloseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != repo.StatusSettled {
		t.Fatalf("status = %q, want %q", resp.Status, repo.StatusSettled)
	}
	if len(pub.closed) != 0 {
		t.Fatalf("no-op close must not publish")
	}
}

func TestPlaceWagerCutoffPublishesPoolClosed(t *testing.T) {
	// o end_time venceu durante a admissão: a aposta é rejeitada, o pool
	// fecha e o evento pool_closed sai com razão CUTOFF
	ledger := &fakeLedger{admitErrs: []error{repo.ErrCutoffClosed}}
	srv, pub := newTestServer(ledger)

	rec := postJSON(t, srv.Router(), "/v1/wagers", dto.PlaceWagerRequest{
		EventID: "e1", HeroID: "h1", UserID: "u1", Amount: 10,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(pub.closed) != 1 || pub.closed[0].Reason != "CUTOFF" || pub.closed[0].EventID != "e1" {
		t.Fatalf("published = %+v", pub.closed)
	}
	if len(pub.placed) != 0 {
		t.Fatalf("rejected wager must not publish wager_placed")
	}
}

func TestSettleOK(t *testing.T) {
	result := &repo.SettlementResult{
		EventID:       "e1",
		WinningHeroID: "hA",
		TotalPool:     250,
		WinningPool:   150,
		Payouts: []repo.UserPayout{
			{UserID: "u1", Amount: 166},
			{UserID: "u2", Amount: 83},
		},
	}
	srv, pub := newTestServer(&fakeLedger{settleResult: result})

	rec := postJSON(t, srv.Router(), "/v1/events/e1/settle", dto.SettleRequest{WinningHeroID: "hA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.SettleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Payouts) != 2 || resp.Payouts[0].Amount != 166 || resp.Payouts[1].Amount != 83 {
		t.Fatalf("payouts = %+v", resp.Payouts)
	}
	if len(pub.settled) != 1 || pub.settled[0].TotalPool != 250 {
		t.Fatalf("published = %+v", pub.settled)
	}
}

func TestSettleRetryReturnsPriorResult(t *testing.T) {
	prior := &repo.SettlementResult{
		EventID:       "e1",
		WinningHeroID: "hA",
		TotalPool:     250,
		WinningPool:   150,
		Payouts:       []repo.UserPayout{{UserID: "u1", Amount: 166}},
	}
	srv, pub := newTestServer(&fakeLedger{settleErr: repo.ErrAlreadySettled, priorResult: prior})

	rec := postJSON(t, srv.Router(), "/v1/events/e1/settle", dto.SettleRequest{WinningHeroID: "hA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with prior result", rec.Code)
	}

	var resp dto.SettleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Payouts) != 1 || resp.Payouts[0].Amount != 166 {
		t.Fatalf("payouts = %+v", resp.Payouts)
	}
	// o retry não liquida de novo nem republica
	if len(pub.settled) != 0 {
		t.Fatalf("retry must not republish pool_settled")
	}
}

func TestSettleAlreadySettledWithoutPriorResult(t *testing.T) {
	srv, _ := newTestServer(&fakeLedger{settleErr: repo.ErrAlreadySettled})

	rec := postJSON(t, srv.Router(), "/v1/events/e1/settle", dto.SettleRequest{WinningHeroID: "hA"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTotals(t *testing.T) {
	srv, _ := newTestServer(&fakeLedger{totals: []repo.HeroTotal{
		{HeroID: "hA", Name: "Aldric", Total: 150},
		{HeroID: "hB", Name: "Brunhild", Total: 100},
	}})

	req := httptest.NewRequest(http.MethodGet, "/v1/events/e1/totals", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp dto.TotalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Totals) != 2 || resp.Totals[0].Total != 150 {
		t.Fatalf("totals = %+v", resp.Totals)
	}
}

func TestUserStatsRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(&fakeLedger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUserStats(t *testing.T) {
	srv, _ := newTestServer(&fakeLedger{stats: []repo.UserStats{
		{UserID: "u1", EventID: "e1", HeroID: "hA", Points: 60, Bets: 1, Earnings: 0},
		{UserID: "u1", EventID: "e1", HeroID: "hB", Points: 20, Bets: 2, Earnings: 44},
	}})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats?userId=u1&eventId=e1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []dto.UserStatsItem
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[1].Earnings != 44 {
		t.Fatalf("stats = %+v", out)
	}
}
