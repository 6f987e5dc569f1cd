package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/cache"
	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/database"
	"github.com/muhammedkisla/deryailetisim/internal/handler"
	"github.com/muhammedkisla/deryailetisim/internal/middleware"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/repository"
	"github.com/muhammedkisla/deryailetisim/internal/service"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
	"github.com/muhammedkisla/deryailetisim/internal/view"
	"github.com/muhammedkisla/deryailetisim/internal/worker"
)

// main is the application entrypoint for the Derya İletişim price list API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting deryailetisim api")

	// 2a. Resolve pricing before anything is opened
	convention, err := pricing.ParseConvention(cfg.Pricing.Convention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid pricing convention: %v\n", err)
		os.Exit(1)
	}
	calc, err := pricing.NewCalculator(convention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid pricing convention: %v\n", err)
		os.Exit(1)
	}
	if _, _, err := service.DefaultRates(calc, cfg.Pricing.DefaultSingleRate, cfg.Pricing.DefaultInstallmentRate); err != nil {
		fmt.Fprintf(os.Stderr, "invalid pricing defaults: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("convention", string(convention)).Msg("pricing configured")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.MigrateUp(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	phoneRepo := repository.NewPhoneRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 4a. Initialize services
	phoneSvc, err := service.NewPhoneService(phoneRepo, calc, cfg.Pricing.DefaultSingleRate, cfg.Pricing.DefaultInstallmentRate)
	if err != nil {
		log.Error().Err(err).Msg("phone service setup failed")
		fmt.Fprintf(os.Stderr, "phone service setup failed: %v\n", err)
		os.Exit(1)
	}
	campaignSvc := service.NewCampaignService(campaignRepo)
	priceListSvc := service.NewPriceListService(calc, cfg.Shop)
	authSvc := service.NewAuthService(adminRepo, cache.NewAuthCache(redisClient), utils.NewJWTManager(cfg.Auth.JWTSecret), service.LogMailer{}, cfg.Auth)

	// 5. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Open the change stream
	stream, err := realtime.NewPGStream(cfg.DB.DSN(), cfg.Realtime.MinReconnectInterval, cfg.Realtime.MaxReconnectInterval,
		realtime.TablePhones, realtime.TableCampaigns)
	if err != nil {
		log.Error().Err(err).Msg("change stream failed")
		fmt.Fprintf(os.Stderr, "change stream failed: %v\n", err)
		os.Exit(1)
	}
	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer)
	go hub.Run(ctx, stream)

	// 7. Start live views
	opts := view.Options{
		Mode:           view.Mode(cfg.Realtime.Mode),
		DebounceWindow: cfg.Realtime.DebounceWindow,
		FetchTimeout:   cfg.Worker.FetchTimeout,
	}
	publicPhones := view.NewPublicPhones(hub, phoneRepo, opts)
	adminPhones := view.NewAdminPhones(hub, phoneRepo, opts)
	campaigns := view.NewCampaigns(hub, campaignRepo, opts)
	edits := view.NewEditSessions(phoneSvc.EmptyForm)
	adminPhones.OnRemove(edits.AbandonPhone)

	for _, v := range []interface {
		Name() string
		Start(context.Context) error
	}{publicPhones, adminPhones, campaigns} {
		// A failed initial load is retried by the refresh worker.
		if err := v.Start(ctx); err != nil {
			log.Warn().Err(err).Str("view", v.Name()).Msg("initial load failed")
		}
	}
	log.Info().Str("mode", cfg.Realtime.Mode).Msg("live views started")

	// 8. Start workers
	refresher := worker.NewRefreshWorker(cfg.Worker.RefreshInterval, stream.Resyncs(), publicPhones, adminPhones, campaigns)
	go refresher.Start(ctx)

	// 9. Initialize handlers
	limiter := middleware.NewInvalidAuthRateLimiter(ctx, 5, time.Minute)
	handlers := &handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.PingContext,
			"redis":    redisClient.Ping,
		}),
		Heartbeat: handler.NewHeartbeatHandler(phoneRepo, cfg.Auth.HeartbeatSecret),
		PriceList: handler.NewPriceListHandler(priceListSvc, publicPhones, campaigns, refresher, hub),
		Phone:     handler.NewPhoneHandler(phoneSvc, priceListSvc, adminPhones, edits, hub),
		Campaign:  handler.NewCampaignHandler(campaignSvc, campaigns),
		Auth:      handler.NewAuthHandler(authSvc, limiter),
	}

	// 10. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(authSvc, limiter)

	// 11. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	handler.SetupRoutes(router, handlers, jwtMw)

	// 12. Start HTTP server; requests share ctx so event streams end on shutdown
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

	// 14. Cancel context to stop workers, then tear down views and the stream
	cancel()
	publicPhones.Close()
	adminPhones.Close()
	campaigns.Close()
	if err := stream.Close(); err != nil {
		log.Warn().Err(err).Msg("change stream close failed")
	}

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
