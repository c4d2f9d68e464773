package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"wallet-monitor/internal/bot"
	"wallet-monitor/internal/config"
	"wallet-monitor/internal/emitters"
	"wallet-monitor/internal/health"
	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/ledger"
	"wallet-monitor/internal/logger"
	"wallet-monitor/internal/monitor"
	"wallet-monitor/internal/price"
	"wallet-monitor/internal/report"
	"wallet-monitor/internal/store"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var walletStore interfaces.WalletStore
	switch cfg.StoreBackend {
	case "memory":
		walletStore = store.NewMemory()
	default:
		pg, err := store.OpenPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer pg.Close()

		if err := pg.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		walletStore = pg
	}

	seedWallets(ctx, walletStore)

	oracle := price.NewOracleClient(cfg.Oracle.Endpoint, cfg.HTTP.Timeout)

	var prices interfaces.PriceSource
	if cfg.Redis.Addr != "" {
		redisCache := price.NewRedisCache(oracle, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Oracle.QuoteTTL, log)
		defer redisCache.Close()
		prices = redisCache
	} else {
		prices = price.NewCache(oracle, cfg.Oracle.QuoteTTL, log)
	}

	ledgerClient := ledger.NewClient(cfg.Ledger.Endpoint, cfg.Ledger.ApiKey, cfg.Ledger.RateLimit, cfg.HTTP.Timeout, log)

	var downstream interfaces.EventEmitter
	if cfg.Kafka.Enabled {
		kafkaEmitter := emitters.NewKafkaEmitter(cfg.Kafka.BrokerAddress, cfg.Kafka.Topic)
		defer kafkaEmitter.Close()
		downstream = kafkaEmitter
	}

	registry := emitters.NewRegistry()
	sink := emitters.NewTelegramSink(cfg.Telegram.ApiBase, cfg.Telegram.Token, cfg.HTTP.Timeout)
	emitter := &emitters.LogEmitter{
		WrappedEmitter: &emitters.Broadcaster{
			Sink:           sink,
			Registry:       registry,
			WrappedEmitter: downstream,
			Logger:         log,
		},
	}

	calculator := report.NewCalculator(ledgerClient, prices, log)

	mon := monitor.New(walletStore, ledgerClient, prices, emitter,
		cfg.Monitor.PollInterval, cfg.Monitor.MaxPerTick, log)
	mon.OnTick(health.RecordTick)
	go mon.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.LivenessHandler)
	mux.HandleFunc("/readyz", health.ReadinessHandler)
	go func() {
		if err := http.ListenAndServe(cfg.HealthAddr, mux); err != nil {
			log.Error().Err(err).Msg("Health server stopped")
		}
	}()

	commandBot := bot.New(cfg.Telegram.ApiBase, cfg.Telegram.Token, sink, walletStore, registry, calculator, log)
	commandBot.Run(ctx)
}
