package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homwrkk/IUI/internal/api"
	"github.com/homwrkk/IUI/internal/auth"
	"github.com/homwrkk/IUI/internal/billing"
	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/db"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/metrics"
	"github.com/homwrkk/IUI/internal/pagestate"
	"github.com/homwrkk/IUI/internal/subscription"
	temporalclient "github.com/homwrkk/IUI/internal/temporal/client"
	"github.com/homwrkk/IUI/internal/user"
)

func fatal(msg string, err error) {
	logger.Log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := db.NewBunPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer bunDB.Close()

	userRepo := user.NewUserRepository(bunDB)

	billingService := billing.NewBilling(cfg)
	if cfg.SyncStripeCatalog && cfg.StripeSecretKey != "" {
		if err := billingService.SyncStripeCatalog(ctx); err != nil {
			fatal("failed to sync stripe catalog", err)
		}
	}
	if !billingService.Prices().Complete() {
		logger.Log.Warn("stripe catalog incomplete; checkout is unavailable for tiers without a price")
	}

	auth.Configure(cfg)
	jwtVerifier, err := auth.NewJWTVerifier(cfg.WorkOSClientID)
	if err != nil {
		fatal("failed to create JWT verifier", err)
	}
	defer jwtVerifier.Close()

	userService := user.NewUserService(userRepo, billingService)
	subscriptions := subscription.NewService(billingService)
	processor := subscription.NewEventProcessor(subscription.TxFunc(userRepo.RunInTx), billingService, billingService.Prices())

	var dispatcher api.EventDispatcher = api.NewInlineDispatcher(processor)
	if cfg.TemporalEnabled() {
		temporalClient, err := temporalclient.NewClient(cfg.TemporalHostPort, cfg.TemporalNamespace)
		if err != nil {
			fatal("failed to create temporal client", err)
		}
		defer temporalClient.Close()
		dispatcher = temporalclient.NewEventDispatcher(temporalClient, cfg.TemporalTaskQueue)
		logger.Log.Info("webhook events dispatched to temporal", "task_queue", cfg.TemporalTaskQueue)
	}

	pages := pagestate.NewSessionsForConfig(cfg)
	defer pages.Close()

	m := metrics.New()
	router := api.SetupRoutes(api.Router{
		AllowedOrigin:   cfg.FE_BASE_URL,
		Tiers:           api.NewTierHandler(),
		Membership:      api.NewMembershipHandler(subscriptions, m),
		Page:            api.NewPageHandler(pages),
		Webhooks:        api.NewWebhookHandler(billingService, dispatcher, m),
		Metrics:         m,
		RequireAuth:     auth.NewMiddleware(jwtVerifier).RequireAuth,
		LoadUser:        user.UserMiddleware(userService),
		LoginHandler:    auth.LoginHandler(cfg),
		CallbackHandler: auth.CallbackHandler(cfg),
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("server shutdown error", "error", err)
		}
	}()

	logger.Log.Info("server starting", "addr", cfg.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("server failed to start", err)
	}

	logger.Log.Info("server stopped")
}
