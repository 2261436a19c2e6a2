package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kijani-trails/conservation-booking/internal/auth"
	"github.com/kijani-trails/conservation-booking/internal/booking"
	"github.com/kijani-trails/conservation-booking/internal/config"
	"github.com/kijani-trails/conservation-booking/internal/database"
	"github.com/kijani-trails/conservation-booking/internal/handler"
	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/middleware"
	"github.com/kijani-trails/conservation-booking/internal/payment"
	"github.com/kijani-trails/conservation-booking/internal/queue"
	"github.com/kijani-trails/conservation-booking/internal/repository"
	"github.com/kijani-trails/conservation-booking/internal/router"
	queue_publisher "github.com/kijani-trails/conservation-booking/internal/service"
	"github.com/kijani-trails/conservation-booking/internal/session"
	"github.com/kijani-trails/conservation-booking/internal/timer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err) // env vars may come from the environment instead
	}

	cfg := config.Load() // required settings; exits when one is missing
	bcfg := config.LoadBookingConfig()
	pcfg := config.LoadPaymentConfig()

	closer, err := logger.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs sessions, rate limiting and the response cache.  Without
	// it bookings still work from process memory.
	var store session.Store
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Log.Warn("[redis] unavailable, using in-memory sessions", "err", err)
		rdb = nil
		store = session.NewMemoryStore(bcfg.SessionTTL)
	} else {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, bcfg.SessionTTL)
	}

	// Repositories
	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	tokens := repository.NewTokenRepo(db)
	experiences := repository.NewExperienceRepo(db)
	bookings := repository.NewBookingRepo(db)
	partners := repository.NewPartnerRepo(db)
	ledger := repository.NewLedgerRepo(db)

	// booking.created is published after each insert and appended to
	// logs/booking.log by the consumer.
	brokerURL := queue.BrokerURL()
	go func() {
		if err := queue.StartBookingConsumer(ctx, brokerURL, "logs"); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Error("[booking-consumer] stopped", "err", err)
		}
	}()

	authProvider := auth.NewRepoProvider(users, profiles, cfg.BcryptCost)
	svc := booking.NewService(booking.Config{
		HoldDuration:            bcfg.HoldDuration,
		Currency:                bcfg.Currency,
		LookupMode:              bcfg.LookupMode,
		PlaceholderExperienceID: bcfg.PlaceholderExperienceID,
		CallbackURL:             bcfg.CallbackURL,
		MaxAdvanceDays:          bcfg.MaxAdvanceDays,
	}, booking.Deps{
		Store:       store,
		Timers:      timer.NewRegistry(bcfg.HoldDuration, timer.WithCriticalThreshold(bcfg.CriticalSeconds)),
		Auth:        authProvider,
		Experiences: experiences,
		Bookings:    bookings,
		Payments:    payment.NewHTTPGateway(pcfg.BaseURL, pcfg.APIKey, pcfg.Timeout),
		Events:      queue_publisher.New(brokerURL),
	})
	if bcfg.LookupMode == booking.LookupDemo {
		logger.Log.Warn("[booking] demo lookup mode: unknown experiences book against a placeholder id")
	}
	if pcfg.CallbackSecret == "" {
		logger.Log.Warn("[payment] PAYMENT_CALLBACK_SECRET not set, callbacks are not verified")
	}

	go sweep(ctx, svc, tokens, bcfg.SweepInterval, bcfg.SessionTTL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.SessionHeader},
		ExposeHeaders: []string{middleware.SessionHeader, "X-Cache"},
	}))

	health := &handler.HealthHandler{DB: db}
	if rdb != nil {
		health.Redis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	mw := router.BookingMiddleware{
		JWTSecret: cfg.JWTSecret,
		Session:   middleware.Session(bcfg.SessionTTL, cfg.Env == "prod"),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authProvider, users, tokens), cfg.JWTSecret)
	router.RegisterExperiences(e, handler.NewExperienceHandler(experiences, bcfg.Currency), mw)
	router.RegisterBooking(e, handler.NewBookingHandler(svc, store), mw)
	router.RegisterPayments(e, handler.NewPaymentHandler(bookings, pcfg.CallbackSecret))
	router.RegisterLedger(e, handler.NewLedgerHandler(ledger, partners), cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Log.Info("listening", "addr", addr, "env", cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown", "err", err)
	}
}

// sweep periodically forgets idle booking sessions and purges expired
// refresh tokens.
func sweep(ctx context.Context, svc *booking.Service, tokens *repository.TokenRepo, every, idle time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := svc.Sweep(idle); n > 0 {
				logger.Log.Debug("[sweep] idle sessions released", "count", n)
			}
			if n, err := tokens.PurgeExpired(ctx, now); err != nil {
				logger.Log.Warn("[sweep] purge refresh tokens failed", "err", err)
			} else if n > 0 {
				logger.Log.Debug("[sweep] expired refresh tokens purged", "count", n)
			}
		}
	}
}
