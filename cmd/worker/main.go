package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-order-taxes/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-order-taxes/internal/platform/observability"
	orderactivities "github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-taxes-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.TemporalDisabled {
		log.Fatal("TEMPORAL_DISABLED is set; the API finalizes orders inline and no worker is needed")
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services, cleanup := api.BuildServices(ctx, cfg, instruments)
	defer cleanup()
	if services.InMemory {
		// The API finalizes inline in this case; a worker here would only see its own empty store.
		logger.Error("worker requires POSTGRES_DSN: in-memory repositories are not shared with the API")
		cleanup()
		os.Exit(1)
	}
	orderActivities := orderactivities.NewActivities(services.Orders)

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderFinalizationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderFinalizationWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderFinalizationWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.RecalculateTaxes, activity.RegisterOptions{Name: orderactivities.RecalculateTaxesActivityName})
	w.RegisterActivityWithOptions(orderActivities.FinalizeOrder, activity.RegisterOptions{Name: orderactivities.FinalizeOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderFinalizationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
