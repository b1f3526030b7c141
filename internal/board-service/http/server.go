package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/hero-pool-platform/internal/board-service/cache"
	"github.com/radieske/hero-pool-platform/internal/board-service/repo"
	"github.com/radieske/hero-pool-platform/pkg/contracts/events"
)

// API expõe os endpoints REST de consulta do board de pools
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo *repo.ReadRepo // acesso ao banco de dados
	Cache    *cache.Cache   // snapshots de totais
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", a.listEvents)             // Lista eventos com pool
	r.Get("/v1/events/{id}/heroes", a.listHeroes) // Lista heróis de um evento
	r.Get("/v1/events/{id}/totals", a.getTotals)  // Totais correntes do pool
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listEvents retorna todos os eventos com pool, abertos ou não
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	ev, err := a.ReadRepo.ListEvents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// listHeroes retorna os heróis de um evento
func (a *API) listHeroes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hs, err := a.ReadRepo.ListHeroes(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(hs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

// getTotals retorna o snapshot de totais de um evento, preferencialmente do cache
func (a *API) getTotals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache events.TotalsSnapshot
	if ok, _ := a.Cache.GetTotals(r.Context(), id, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	totals, err := a.ReadRepo.GetTotalsByEvent(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(totals) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	snap := events.TotalsSnapshot{EventID: id, UpdatedAt: time.Now()}
	for _, t := range totals {
		snap.Totals = append(snap.Totals, events.HeroTotal{HeroID: t.HeroID, Name: t.Name, Total: t.Total})
	}

	_ = a.Cache.SetTotals(r.Context(), id, snap, 30*time.Second) // salva no cache por 30s
	writeJSON(w, http.StatusOK, snap)
}
