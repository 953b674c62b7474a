package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cx-tradecore/internal/auth"
	"cx-tradecore/internal/balance"
	"cx-tradecore/internal/config"
	"cx-tradecore/internal/copytrade"
	"cx-tradecore/internal/db"
	"cx-tradecore/internal/events"
	"cx-tradecore/internal/health"
	"cx-tradecore/internal/httpserver"
	"cx-tradecore/internal/notify"
	"cx-tradecore/internal/pricing"
	"cx-tradecore/internal/transfer"
	"cx-tradecore/internal/vip"
	"cx-tradecore/internal/volume"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	startedAt := time.Now().UTC()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	bus := events.NewBus()
	var dispatcher notify.Dispatcher
	if cfg.NotifyMode == "disabled" {
		dispatcher = notify.NewDisabledDispatcher()
	} else {
		dispatcher = notify.NewLogDispatcher()
	}

	balanceSvc := balance.NewService(pool)
	volumeSvc := volume.NewService(pool)
	transferSvc := transfer.NewService(pool, balanceSvc, volumeSvc, bus)
	vipSvc := vip.NewService(pool)
	priceSource := pricing.NewPGSource(pool)
	copySvc := copytrade.NewService(pool, balanceSvc, vipSvc, priceSource, bus)
	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, dispatcher)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      auth.NewHandler(authSvc),
		BalanceHandler:   balance.NewHandler(balanceSvc),
		VolumeHandler:    volume.NewHandler(volumeSvc),
		TransferHandler:  transfer.NewHandler(transferSvc),
		CopyTradeHandler: copytrade.NewHandler(copySvc),
		HealthHandler:    health.NewHandler(pool, startedAt, cfg.HTTPAddr, cfg.InternalToken),
		AuthService:      authSvc,
		InternalToken:    cfg.InternalToken,
		WSHandler:        httpserver.NewWSHandler(bus, authSvc, cfg.WebSocketOrigin),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go copySvc.StartSettlementWorker(ctx, cfg.SettlementInterval)
	go volumeSvc.StartRecomputeWorker(ctx, cfg.VolumeSweepInterval)

	log.Printf("server listening on %s", cfg.HTTPAddr)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
