package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/config"
	"github.com/kalleeh/monarchygame-sub001/internal/handler"
	"github.com/kalleeh/monarchygame-sub001/internal/logger"
	"github.com/kalleeh/monarchygame-sub001/internal/middleware"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/postgres"
	redisrepo "github.com/kalleeh/monarchygame-sub001/internal/repository/redis"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("warStore", cfg.WarStore).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis (war expiry timers)
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry may not work)")
	}

	// Repos
	kingdomRepo := postgres.NewKingdomRepo(db)
	guildRepo := postgres.NewGuildRepo(db)
	reportRepo := postgres.NewReportRepo(db)
	territoryRepo := postgres.NewTerritoryRepo(db)
	tradeRepo := postgres.NewTradeRepo(db)
	treatyRepo := postgres.NewTreatyRepo(db)
	bountyRepo := postgres.NewBountyRepo(db)

	var warRepo repository.WarRepository
	switch cfg.WarStore {
	case config.StoreMemory:
		warRepo = memory.NewWarRepo()
	default:
		warRepo = postgres.NewWarRepo(db)
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Rate limiter
	limiter := ratelimit.New(ratelimit.DefaultConfigs())

	// Services
	kingdomSvc := service.NewKingdomService(kingdomRepo, reportRepo)
	warSvc := service.NewWarService(warRepo, guildRepo, kingdomRepo, redisClient, wsHub)
	combatSvc := service.NewCombatService(kingdomRepo, reportRepo, treatyRepo, bountyRepo, warSvc, wsHub)
	spellSvc := service.NewSpellService(kingdomRepo, wsHub)
	territorySvc := service.NewTerritoryService(territoryRepo, kingdomRepo)
	guildSvc := service.NewGuildService(guildRepo, kingdomRepo)
	tradeSvc := service.NewTradeService(tradeRepo, kingdomRepo, wsHub)
	treatySvc := service.NewTreatyService(treatyRepo, kingdomRepo, wsHub)
	bountySvc := service.NewBountyService(bountyRepo, kingdomRepo, wsHub)

	// Timer listener (war auto-settlement on expiry)
	timerListener := service.NewWarTimerListener(redisClient.Underlying(), warSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr)
	kingdomHandler := handler.NewKingdomHandler(kingdomSvc, limiter)
	combatHandler := handler.NewCombatHandler(combatSvc, limiter)
	spellHandler := handler.NewSpellHandler(spellSvc, limiter)
	territoryHandler := handler.NewTerritoryHandler(territorySvc, limiter)
	warHandler := handler.NewWarHandler(warSvc, limiter)
	guildHandler := handler.NewGuildHandler(guildSvc, limiter)
	tradeHandler := handler.NewTradeHandler(tradeSvc, limiter)
	treatyHandler := handler.NewTreatyHandler(treatySvc, limiter)
	bountyHandler := handler.NewBountyHandler(bountySvc, limiter)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("POST /kingdoms", kingdomHandler.CreateKingdom)
	api.HandleFunc("GET /kingdoms/{id}", kingdomHandler.GetKingdom)
	api.HandleFunc("GET /kingdoms/{id}/reports", kingdomHandler.ListReports)
	api.HandleFunc("POST /kingdoms/{id}/train", kingdomHandler.Train)
	api.HandleFunc("POST /kingdoms/{id}/build", kingdomHandler.Build)
	api.HandleFunc("POST /kingdoms/{id}/attack", combatHandler.Attack)
	api.HandleFunc("POST /kingdoms/{id}/thievery", combatHandler.Thievery)
	api.HandleFunc("POST /kingdoms/{id}/spells/cast", spellHandler.CastSpell)
	api.HandleFunc("POST /kingdoms/{id}/territories", territoryHandler.ClaimTerritory)
	api.HandleFunc("GET /kingdoms/{id}/territories", territoryHandler.ListTerritories)
	api.HandleFunc("GET /kingdoms/{id}/treaties", treatyHandler.ListTreaties)
	api.HandleFunc("POST /wars", warHandler.DeclareWar)
	api.HandleFunc("GET /wars", warHandler.ListWars)
	api.HandleFunc("GET /wars/{id}", warHandler.GetWar)
	api.HandleFunc("POST /wars/{id}/resolve", warHandler.ResolveWar)
	api.HandleFunc("POST /wars/{id}/concede", warHandler.ConcedeWar)
	api.HandleFunc("POST /guilds", guildHandler.CreateGuild)
	api.HandleFunc("GET /guilds/{id}", guildHandler.GetGuild)
	api.HandleFunc("POST /guilds/{id}/join", guildHandler.JoinGuild)
	api.HandleFunc("POST /guilds/{id}/treasury/deposit", guildHandler.Deposit)
	api.HandleFunc("POST /guilds/{id}/treasury/withdraw", guildHandler.Withdraw)
	api.HandleFunc("POST /trades", tradeHandler.CreateOffer)
	api.HandleFunc("GET /trades", tradeHandler.ListOpen)
	api.HandleFunc("POST /trades/{id}/accept", tradeHandler.AcceptOffer)
	api.HandleFunc("POST /trades/{id}/cancel", tradeHandler.CancelOffer)
	api.HandleFunc("POST /treaties", treatyHandler.ProposeTreaty)
	api.HandleFunc("POST /treaties/{id}/accept", treatyHandler.AcceptTreaty)
	api.HandleFunc("POST /treaties/{id}/break", treatyHandler.BreakTreaty)
	api.HandleFunc("POST /bounties", bountyHandler.PlaceBounty)
	api.HandleFunc("GET /bounties", bountyHandler.ListBounties)
	api.HandleFunc("POST /bounties/{id}/cancel", bountyHandler.CancelBounty)
	api.HandleFunc("POST /admin/tick", kingdomHandler.TickTurns)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// War timer listener (auto-settle on expiry)
	go timerListener.Start(ctx)

	// Periodic turn tick
	tickInterval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		log.Warn().Err(err).Str("tickInterval", cfg.TickInterval).Msg("Invalid tick interval, using 1h")
		tickInterval = time.Hour
	}
	go runTurnTicker(ctx, kingdomSvc, tickInterval)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

// runTurnTicker banks a turn for every active kingdom on a fixed period.
func runTurnTicker(ctx context.Context, kingdomSvc *service.KingdomService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Turn ticker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Turn ticker stopped")
			return
		case <-ticker.C:
			report, err := kingdomSvc.TickTurns(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Turn tick failed")
				continue
			}
			log.Info().Int("ticked", report.Ticked).Int("skipped", report.Skipped).
				Int("failed", report.Failed).Msg("Turn tick complete")
		}
	}
}
