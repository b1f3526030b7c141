package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/hero-pool-platform/internal/shared/config"
	"github.com/radieske/hero-pool-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	poolURL := os.Getenv("POOL_URL")
	if poolURL == "" {
		poolURL = "http://localhost:8083"
	}
	boardURL := os.Getenv("BOARD_URL")
	if boardURL == "" {
		boardURL = "http://localhost:8080"
	}
	pool := rp(poolURL)
	board := rp(boardURL)

	mux := http.NewServeMux()

	// escrita (ex.: /api/pool/* -> pool-service)
	mux.Handle("/api/pool/", http.StripPrefix("/api/pool", pool))

	// leitura e WS (ex.: /api/board/* -> board-service)
	mux.Handle("/api/board/", http.StripPrefix("/api/board", board))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
