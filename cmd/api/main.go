package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	cartadapter "github.com/LW95x/marketplace-backend/internal/cart/infra/adapter"
	cartsqlite "github.com/LW95x/marketplace-backend/internal/cart/infra/sqlite"

	catalogapp "github.com/LW95x/marketplace-backend/internal/catalog/app"
	catalogsqlite "github.com/LW95x/marketplace-backend/internal/catalog/infra/sqlite"

	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
	invsqlite "github.com/LW95x/marketplace-backend/internal/inventory/infra/sqlite"

	orderapp "github.com/LW95x/marketplace-backend/internal/order/app"
	ordersqlite "github.com/LW95x/marketplace-backend/internal/order/infra/sqlite"

	checkoutapp "github.com/LW95x/marketplace-backend/internal/checkout/app"
	checkoutadapter "github.com/LW95x/marketplace-backend/internal/checkout/infra/adapter"

	"github.com/LW95x/marketplace-backend/pkg/config"
	"github.com/LW95x/marketplace-backend/pkg/logger"
	"github.com/LW95x/marketplace-backend/pkg/shutdown"
	"github.com/LW95x/marketplace-backend/pkg/sqlite"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "api", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Error("db open failed", slog.Any("err", err), slog.String("path", cfg.SQLitePath))
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db); err != nil {
		log.Error("db migrate failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Catalog
	catalogRepo := catalogsqlite.NewProductRepo(db)
	catalogSvc := catalogapp.NewService(catalogRepo)

	// Inventory ledger
	stockRepo := invsqlite.NewStockRepo(db)
	invSvc := invapp.NewService(stockRepo)

	// Cart
	cartRepo := cartsqlite.NewCartRepo(db)
	cartSvc := cartapp.NewService(cartRepo, cartadapter.NewCatalogProductReader(catalogSvc), log)

	// Orders
	orderRepo := ordersqlite.NewOrderRepo(db)
	orderSvc := orderapp.NewService(orderRepo, log)

	// Checkout (adapters)
	checkoutSvc := checkoutapp.NewService(
		checkoutadapter.NewCartServiceSource(cartSvc),
		checkoutadapter.NewInventoryLedger(invSvc),
		checkoutadapter.NewSQLOrderPlacer(db),
		log, 10)

	api := &server{
		log:      log,
		catalog:  catalogSvc,
		cart:     cartSvc,
		orders:   orderSvc,
		checkout: checkoutSvc,
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}
