package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ordersserver "github.com/Apurer/go-gin-order-taxes/go"
	ordersworkflows "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-order-taxes/internal/platform/observability"
)

// Run boots the order taxes HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-taxes-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services, cleanup := BuildServices(ctx, cfg, instruments)
	defer cleanup()

	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(services.Orders)
	if reason := inlineFinalizationReason(cfg, services); reason != "" {
		logger.Warn(reason + ", finalizing inline")
	} else if temporalClient, err := ConnectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, finalizing inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := ordersserver.ApiHandleFunctions{
		OrderAPI:       ordersserver.NewOrderAPI(services.Orders, orderWorkflows),
		TaxCategoryAPI: ordersserver.NewTaxCategoryAPI(services.Taxation),
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router = ordersserver.NewRouterWithGinEngine(router, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("order taxes API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("order taxes API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down order taxes API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// inlineFinalizationReason explains why orders must be finalized in this
// process, or returns "" when the Temporal worker may do it. A worker cannot
// see orders held in the API's in-memory repositories.
func inlineFinalizationReason(cfg Config, services *Services) string {
	switch {
	case cfg.TemporalDisabled:
		return "Temporal workflows disabled via TEMPORAL_DISABLED"
	case services.InMemory:
		return "repositories are in-memory and not shared with a worker"
	default:
		return ""
	}
}
