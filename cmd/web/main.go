// /cmd/web/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/database"
	"github.com/ericoliveiras/shopeasy/internal/events"
	"github.com/ericoliveiras/shopeasy/internal/handler"
	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/metrics"
)

func main() {
	boot := logging.New("shopeasy", "info")
	if err := config.LoadEnvFile(); err != nil {
		boot.Error("erro ao carregar o arquivo .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error("configuração inválida", "error", err)
		os.Exit(1)
	}
	log := logging.New("shopeasy", cfg.LogLevel)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("falha ao conectar ao banco de dados", "error", err)
		os.Exit(1)
	}
	log.Info("conexão com o banco de dados estabelecida", "driver", cfg.DatabaseDriver)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := database.SeedAdmin(db, log, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Error("falha no seed do admin", "error", err)
			os.Exit(1)
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaBrokers != "" {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("falha ao configurar o kafka", "error", err)
			os.Exit(1)
		}
		publisher = kp
		log.Info("eventos de pedidos habilitados", "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	var limiter handler.RateCounter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn("redis indisponível, rate limiting desativado", "addr", cfg.RedisAddr, "error", err)
			client.Close()
		} else {
			limiter = client
			defer client.Close()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Metrics:   metrics.NewServerMetrics(),
		Publisher: publisher,
		Limiter:   limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("servidor rodando", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("erro no servidor http", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("falha ao encerrar o servidor", "error", err)
	}
	log.Info("servidor encerrado")
}
