package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/cache"
	"github.com/GTDGit/gtd_visa/internal/config"
	"github.com/GTDGit/gtd_visa/internal/database"
	"github.com/GTDGit/gtd_visa/internal/handler"
	"github.com/GTDGit/gtd_visa/internal/metrics"
	"github.com/GTDGit/gtd_visa/internal/middleware"
	"github.com/GTDGit/gtd_visa/internal/repository"
	"github.com/GTDGit/gtd_visa/internal/service"
	"github.com/GTDGit/gtd_visa/internal/sse"
	"github.com/GTDGit/gtd_visa/internal/utils"
	"github.com/GTDGit/gtd_visa/internal/worker"
)

// main is the application entrypoint for the GTD visa pricing API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting gtd visa api")
	utils.SetJWTSecret(cfg.JWTSecret)
	loc := cfg.Pricing.Location()

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. Without it views are not cached and the
	// mutation lock only covers this instance.
	var (
		views       service.ViewCache
		redisPinger handler.Pinger
	)
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache and with a local mutation lock")
		redisClient = nil
	} else {
		defer redisClient.Close()
		views = cache.NewPricingCache(redisClient, cfg.Pricing.CacheTTL)
		redisPinger = redisClient
		log.Info().Msg("redis connected successfully")
	}
	locker := cache.NewRedisLocker(redisClient, cfg.Pricing.MutationLockTTL)

	// 4. Initialize metrics and the SSE hub
	m := metrics.New("gtd-visa")
	hub := sse.NewHub()

	// 5. Initialize repositories
	visaRepo := repository.NewVisaRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	specialRepo := repository.NewSpecialPriceRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	// 6. Initialize services
	guard := service.NewMutationGuard(locker, views, sse.NewHubNotifier(hub), m)
	pricingSvc := service.NewPricingService(visaRepo, specialRepo, campaignRepo, views, guard, m, loc, cfg.Pricing.BufferDays)
	specialSvc := service.NewSpecialPriceService(visaRepo, specialRepo, guard, m)
	campaignSvc := service.NewCampaignService(campaignRepo, guard, m, loc)
	agentSvc := service.NewAgentService(agentRepo, cfg.Pricing.AgentSearchLimit, m)
	bookingSvc := service.NewBookingService(loc, cfg.Pricing.BufferDays)
	sheetSvc := service.NewPriceSheetService(pricingSvc, specialRepo, campaignRepo, agentRepo, loc)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(visaRepo, redisPinger),
		SSE:          handler.NewSSEHandler(hub),
		Pricing:      handler.NewPricingHandler(pricingSvc),
		SpecialPrice: handler.NewSpecialPriceHandler(specialSvc),
		Campaign:     handler.NewCampaignHandler(campaignSvc),
		Agent:        handler.NewAgentHandler(agentSvc),
		Booking:      handler.NewBookingHandler(bookingSvc),
		PriceSheet:   handler.NewPriceSheetHandler(sheetSvc),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(m.Middleware())
	router.GET("/metrics", gin.WrapH(m.Handler()))
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewCampaignExpiryWorker(campaignSvc, cfg.Worker.CampaignSweepInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers and SSE streams
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	SSE          *handler.SSEHandler
	Pricing      *handler.PricingHandler
	SpecialPrice *handler.SpecialPriceHandler
	Campaign     *handler.CampaignHandler
	Agent        *handler.AgentHandler
	Booking      *handler.BookingHandler
	PriceSheet   *handler.PriceSheetHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// EventSource cannot send headers; the stream checks its token itself.
	router.GET("/v1/admin/sse", handlers.SSE.Stream)

	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle())
	{
		// Visa prices
		admin.GET("/pricing/visas", handlers.Pricing.ListVisas)
		admin.GET("/pricing/visas/options", handlers.Pricing.Options)
		admin.POST("/pricing/visas/bulk-update", handlers.Pricing.BulkUpdate)
		admin.GET("/pricing/visas/:id", handlers.Pricing.GetVisa)
		admin.PATCH("/pricing/visas/:id/price", handlers.Pricing.UpdatePrice)
		admin.GET("/pricing/visas/:id/resolve", handlers.Pricing.Resolve)
		admin.GET("/pricing/visas/:id/deadline", handlers.Pricing.Deadline)

		// Agent special prices
		admin.GET("/pricing/visas/:id/special-prices", handlers.SpecialPrice.List)
		admin.PUT("/pricing/special-prices", handlers.SpecialPrice.Upsert)
		admin.POST("/pricing/special-prices/bulk", handlers.SpecialPrice.BulkUpsert)
		admin.POST("/pricing/special-prices/assign", handlers.SpecialPrice.Assign)
		admin.POST("/pricing/special-prices/apply-rule", handlers.SpecialPrice.ApplyRule)
		admin.DELETE("/pricing/special-prices/:id", handlers.SpecialPrice.Delete)

		// Agents
		admin.GET("/pricing/agents/search", handlers.Agent.Search)
		admin.GET("/pricing/agents/:id", handlers.Agent.GetAgent)
		admin.GET("/pricing/agents/:id/special-prices", handlers.SpecialPrice.AgentOverrides)

		// Campaigns
		admin.GET("/pricing/visas/:id/campaigns", handlers.Campaign.List)
		admin.PUT("/pricing/campaigns", handlers.Campaign.Upsert)
		admin.POST("/pricing/campaigns/bulk", handlers.Campaign.BulkCreate)
		admin.DELETE("/pricing/campaigns/:id", handlers.Campaign.Delete)

		// Price sheet and bookings
		admin.GET("/pricing/sheet", handlers.PriceSheet.Sheet)
		admin.POST("/bookings/urgency", handlers.Booking.Urgency)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
