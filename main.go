package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/router"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
		utils.UseJSON()
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	hub := kds.NewHub()
	floor, catalog := buildFloor(db, cfg, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := floor.Load(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to load floor: %v", err)
	}

	r := router.SetupRouter(router.Deps{
		Floor:          floor,
		Catalog:        catalog,
		Hub:            hub,
		JWTSecret:      []byte(cfg.JWTSecret),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Shutdown: %v", err)
	}
}

// buildFloor wires the gorm backends into the stores and the floor.
func buildFloor(db *gorm.DB, cfg *config.Config, notifier services.Notifier) (*services.Floor, *store.GormCatalog) {
	retry := store.DefaultRetryPolicy()
	retry.MaxRetries = cfg.StoreRetries

	catalog := store.NewGormCatalog(db, cfg.StoreTimeout)
	floor := services.NewFloor(services.FloorDeps{
		Tables:   store.NewTableStore(store.NewGormTableBackend(db, cfg.StoreTimeout), retry),
		Orders:   store.NewOrderStore(store.NewGormOrderBackend(db, cfg.StoreTimeout), retry),
		Payments: store.NewPaymentStore(store.NewGormPaymentBackend(db, cfg.StoreTimeout), retry),
		Catalog:  catalog,
		Audit:    store.NewGormAuditLog(db, cfg.StoreTimeout),
		Notifier: notifier,
	})
	return floor, catalog
}
