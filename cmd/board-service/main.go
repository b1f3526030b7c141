package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	bcache "github.com/radieske/hero-pool-platform/internal/board-service/cache"
	bhttp "github.com/radieske/hero-pool-platform/internal/board-service/http"
	brepo "github.com/radieske/hero-pool-platform/internal/board-service/repo"
	"github.com/radieske/hero-pool-platform/internal/board-service/ws"
	sharedcache "github.com/radieske/hero-pool-platform/internal/shared/cache"
	"github.com/radieske/hero-pool-platform/internal/shared/config"
	"github.com/radieske/hero-pool-platform/internal/shared/db"
	"github.com/radieske/hero-pool-platform/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres (somente leitura)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de snapshots + pub/sub do broadcast
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer redisClient.Close()

	api := &bhttp.API{
		ReadRepo: &brepo.ReadRepo{DB: pg},
		Cache:    bcache.New(redisClient),
	}

	// Hub WebSocket alimentado pelo canal Redis Pub/Sub
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartRedisSubscriber(ctx, redisClient, hub)

	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: mux,
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("board-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
