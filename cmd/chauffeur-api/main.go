// README: Entry point; loads config, wires services, starts the HTTP server
// and the notification worker.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chauffeur/internal/config"
	httptransport "chauffeur/internal/http"
	"chauffeur/internal/infra"
	"chauffeur/internal/logging"
	"chauffeur/internal/modules/assignment"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/ledger"
	"chauffeur/internal/modules/order"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)

	queue := notify.NewQueue(redisClient, cfg.Notify.Queue)
	cache := order.NewCache(redisClient, time.Duration(cfg.Notify.CacheTTLSec)*time.Second)

	pricingSvc := pricing.NewService(cfg.Pricing)

	driverStore := driver.NewStore(dbPool)
	driverSvc := driver.NewService(driverStore, logger)

	ledgerStore := ledger.NewStore(dbPool)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(dbPool, orderStore, cache, driverStore, ledgerStore, pricingSvc, queue, logger)

	engine := assignment.NewEngine(dbPool, orderStore, cache, driverStore, queue, logger)

	worker := notify.NewWorker(queue, &notify.LogSink{Log: logger}, logger, cfg.Notify.MaxAttempts)
	go worker.Run(ctx)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Orders:     orderSvc,
		Drivers:    driverSvc,
		Pricing:    pricingSvc,
		Ledger:     ledgerStore,
		Assignment: engine,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", logging.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
