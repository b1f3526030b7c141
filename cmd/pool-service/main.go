package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	poolhttp "github.com/radieske/hero-pool-platform/internal/pool-service/http"
	"github.com/radieske/hero-pool-platform/internal/pool-service/producer"
	"github.com/radieske/hero-pool-platform/internal/pool-service/repo"
	"github.com/radieske/hero-pool-platform/internal/shared/config"
	"github.com/radieske/hero-pool-platform/internal/shared/db"
	"github.com/radieske/hero-pool-platform/internal/shared/kafka"
	"github.com/radieske/hero-pool-platform/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writers (um por tópico de domínio)
	wagerPlacedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer wagerPlacedW.Close()
	poolClosedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolClosed)
	defer poolClosedW.Close()
	poolSettledW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolSettled)
	defer poolSettledW.Close()

	// deps
	ledger := repo.NewPostgres(pg)
	publ := producer.NewKafkaPublisher(wagerPlacedW, poolClosedW, poolSettledW)

	// HTTP público
	api := poolhttp.NewServer(log, ledger, publ)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
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

	log.Info("pool-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
