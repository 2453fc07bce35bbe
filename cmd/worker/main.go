package main

import (
	"context"
	"errors"
	"os"

	"go.temporal.io/sdk/worker"

	"github.com/homwrkk/IUI/internal/billing"
	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/db"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/homwrkk/IUI/internal/temporal/activities"
	temporalclient "github.com/homwrkk/IUI/internal/temporal/client"
	temporalworker "github.com/homwrkk/IUI/internal/temporal/worker"
	"github.com/homwrkk/IUI/internal/user"
)

func fatal(msg string, err error) {
	logger.Log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if !cfg.TemporalEnabled() {
		fatal("worker requires temporal", errors.New("TEMPORAL_HOST_PORT is not set"))
	}

	bunDB, err := db.NewBunPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer bunDB.Close()

	billingService := billing.NewBilling(cfg)
	// The registry backs the price-id fallback when a subscription carries no tier metadata.
	if cfg.SyncStripeCatalog && cfg.StripeSecretKey != "" {
		if err := billingService.SyncStripeCatalog(ctx); err != nil {
			fatal("failed to sync stripe catalog", err)
		}
	}
	if !billingService.Prices().Complete() {
		logger.Log.Warn("stripe catalog incomplete; events without tier metadata cannot be resolved by price id")
	}

	processor := subscription.NewEventProcessor(subscription.TxFunc(user.NewUserRepository(bunDB).RunInTx), billingService, billingService.Prices())

	temporalClient, err := temporalclient.NewClient(cfg.TemporalHostPort, cfg.TemporalNamespace)
	if err != nil {
		fatal("failed to create temporal client", err)
	}
	defer temporalClient.Close()

	w := temporalworker.NewWorker(temporalClient, cfg.TemporalTaskQueue, activities.NewActivities(processor))
	if err := w.Run(worker.InterruptCh()); err != nil {
		fatal("temporal worker stopped", err)
	}
}
