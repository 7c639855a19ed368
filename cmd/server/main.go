package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Spok95/odonto/internal/api"
	"github.com/Spok95/odonto/internal/config"
	"github.com/Spok95/odonto/internal/domain/consumption"
	"github.com/Spok95/odonto/internal/domain/inventory"
	"github.com/Spok95/odonto/internal/domain/materials"
	"github.com/Spok95/odonto/internal/domain/procedures"
	"github.com/Spok95/odonto/internal/domain/shopping"
	"github.com/Spok95/odonto/internal/infra/db"
	"github.com/Spok95/odonto/internal/infra/events"
	httpx "github.com/Spok95/odonto/internal/infra/http"
	"github.com/Spok95/odonto/internal/infra/lock"
	"github.com/Spok95/odonto/internal/infra/logger"
	"github.com/Spok95/odonto/internal/infra/metrics"
	"github.com/Spok95/odonto/internal/infra/notify"
)

func main() {
	// количества и суммы уходят в JSON числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("db connected")

	m := metrics.New(prometheus.DefaultRegisterer)

	var pub events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}
	defer func() { _ = pub.Close() }()

	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Addr != "" {
		rdb, err := lock.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			// без redis работаем, дубли pendente отсекает уникальный индекс
			log.Warn("redis unavailable, restock runs are not serialised", "err", err)
		} else {
			defer func() { _ = rdb.Close() }()
			locker = lock.NewRedis(rdb)
			log.Info("redis lock enabled", "addr", cfg.Redis.Addr)
		}
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		bot, err := notify.Connect(cfg.Telegram.Token)
		if err != nil {
			log.Warn("telegram auth failed, notifications disabled", "err", err)
		} else {
			notifier = notify.NewTelegram(bot, cfg.Telegram.AdminChatID)
			log.Info("telegram notifications enabled", "bot", bot.Self.UserName)
		}
	}

	handlers := api.New(api.Deps{
		Executions: consumption.NewService(consumption.NewRepo(pool), pub, log, m),
		Shopping:   shopping.NewService(shopping.NewRepo(pool), locker, notifier, log, m),
		Materials:  materials.NewService(materials.NewRepo(pool)),
		Stock:      inventory.NewService(inventory.NewRepo(pool), pub, log, m),
		Procedures: procedures.NewService(procedures.NewRepo(pool)),
	}, log)

	srv := httpx.New(httpx.Options{
		Addr:          cfg.HTTP.Addr,
		ExposeMetrics: cfg.Metrics.Enabled,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		Log:           log,
		Metrics:       m,
	}, func(r *mux.Router) { handlers.RegisterRoutes(r) })

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete", slog.String("env", cfg.App.Env))
}
