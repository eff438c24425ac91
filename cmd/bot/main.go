package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"exchange-ticket-bot/internal/bot"
	cacheredis "exchange-ticket-bot/internal/cache/redis"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/config"
	apphttp "exchange-ticket-bot/internal/http"
	"exchange-ticket-bot/internal/metrics"
	"exchange-ticket-bot/internal/platform/db"
	"exchange-ticket-bot/internal/platform/discord"
	redisplatform "exchange-ticket-bot/internal/platform/redis"
	pgrepo "exchange-ticket-bot/internal/repository/postgres"
	"exchange-ticket-bot/internal/service/botconfig"
	"exchange-ticket-bot/internal/service/leaderboard"
	"exchange-ticket-bot/internal/service/tickets"
	"exchange-ticket-bot/internal/service/wizard"
	"exchange-ticket-bot/internal/state"
	"exchange-ticket-bot/internal/workers"
)

const (
	serviceName     = "exchange-ticket-bot"
	gatewayTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
	taskTimeout     = 30 * time.Second
	janitorInterval = time.Minute
)

// @title        Exchange Ticket Bot status API
// @version      1.0
// @description  Status, health and metrics endpoints of the exchange ticket bot.
// @BasePath     /

func main() {
	// Create cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger.Init(serviceName, cfg.Debug)
	started := time.Now()

	pg, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()
	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pg); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		logger.Info().Msg("Database migrations applied")
	}
	ledger := pgrepo.NewLedgerRepository(pg)
	botCfg := botconfig.NewStore(ledger)

	client, err := discord.NewClient(cfg.Discord.BotToken, cfg.Discord.ApplicationID, cfg.Discord.GuildID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord client")
	}
	publisher := leaderboard.NewPublisher(client, ledger, botCfg)

	// Ephemeral state lives in Redis when enabled, otherwise in process memory.
	var (
		selections state.SelectionStore
		registry   state.TicketRegistry
		dedup      state.Deduper
		history    tickets.HistoryRecorder = publisher
		rdb        *redisplatform.Client
	)
	checks := map[string]apphttp.Pinger{"postgres": ledger}
	if cfg.Redis.Enabled {
		rdb, err = redisplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		checks["redis"] = rdb
		selections = cacheredis.NewSelectionCache(rdb, cfg.Exchange.SelectionTTL)
		registry = cacheredis.NewTicketRegistry(rdb)
		dedup = cacheredis.NewEventDeduper(rdb, cfg.Exchange.DedupWindow)
		history = cacheredis.NewHistoryStream(rdb)
		go workers.NewHistoryStreamWorker(rdb, publisher).Start(ctx)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis for selections, tickets and dedup")
	} else {
		memSelections := state.NewMemorySelectionStore(cfg.Exchange.SelectionTTL)
		memDedup := state.NewMemoryDeduper(cfg.Exchange.DedupWindow)
		selections, registry, dedup = memSelections, state.NewMemoryTicketRegistry(), memDedup
		go workers.NewJanitor(janitorInterval, map[string]workers.Sweeper{
			"selections": memSelections,
			"dedup":      memDedup,
		}).Start(ctx)
		logger.Info().Msg("Using in-memory selections, tickets and dedup")
	}

	scheduler := workers.NewDelayScheduler(taskTimeout)
	locks := &state.KeyedMutex{}
	ticketSvc := tickets.NewService(tickets.Deps{
		Platform:   client,
		Selections: selections,
		Registry:   registry,
		Ledger:     ledger,
		Config:     botCfg,
		Publisher:  publisher,
		History:    history,
		Scheduler:  scheduler,
		Locks:      locks,
	}, tickets.WithCategory(cfg.Exchange.TicketsCategory))
	engine := wizard.NewEngine(selections, ticketSvc, locks, wizard.WithTicketLimit(cfg.Exchange.TicketLimit))
	admin := bot.NewAdmin(client, botCfg, publisher)

	dispatcher := bot.NewDispatcher(dedup, client)
	bot.Register(dispatcher, engine, ticketSvc, admin)
	client.OnEvent(ctx, dispatcher.Dispatch)

	openCtx, cancelOpen := context.WithTimeout(ctx, gatewayTimeout)
	err = client.Open(openCtx)
	cancelOpen()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Discord")
	}
	if err := client.RegisterCommands(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to register slash commands")
	}
	if err := publisher.Bootstrap(ctx); err != nil {
		logger.Error().Err(err).Msg("Channel bootstrap incomplete")
	}

	go workers.NewLeaderboardWorker(publisher, cfg.Exchange.LeaderboardInterval).Start(ctx)
	go metrics.StartDBStatsCollector(ctx, pg, 15*time.Second)

	server := apphttp.NewServer(cfg.HTTPAddr, apphttp.NewRouter(apphttp.Deps{
		Bot:            client,
		Totals:         ledger,
		Checks:         checks,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Debug:          cfg.Debug,
		Started:        started,
	}))
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}
	// Pending channel deletions run now rather than being lost.
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Int("pending", scheduler.Pending()).Msg("Scheduled tasks did not finish")
	}
	if err := client.Close(); err != nil {
		logger.Error().Err(err).Msg("Discord session close")
	}
	logger.Info().Msg("Bot stopped")
}
