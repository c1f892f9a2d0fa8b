package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/api"
	"arbitrage/internal/api/wsstream"
	"arbitrage/internal/broker"
	"arbitrage/internal/config"
	"arbitrage/internal/scanner"
	"arbitrage/internal/store"
	"arbitrage/internal/supervisor"
	"arbitrage/internal/venue"
	"arbitrage/internal/venue/simulated"
	"arbitrage/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := utils.InitLogger(utils.LoggerConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(logger)
	opportunityBroker := broker.New(logger)

	var wg sync.WaitGroup
	sup := supervisor.New(supervisor.DefaultConfig(), st, logger)
	for i, venueName := range cfg.Scanner.Venues {
		adapter := adapterFor(venueName, int64(i))
		wg.Add(1)
		go func(a venue.Adapter) {
			defer wg.Done()
			sup.Run(ctx, a, cfg.Scanner.Symbols)
		}(adapter)
	}

	scan := scanner.New(st, opportunityBroker, cfg.Scanner, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scan.Run(ctx)
	}()

	streamServer := wsstream.NewServer(opportunityBroker, logger)
	router := api.SetupRoutes(&api.Dependencies{
		Store:  st,
		Broker: opportunityBroker,
		Config: cfg.Scanner,
		Logger: logger,
		Stream: streamServer,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server exited")
}

// adapterFor resolves a configured venue name to an Adapter. Real
// exchange adapters aren't wired here since no credentials are in
// scope; every venue runs against a synthetic order book generator
// seeded with a plausible base price so the full discover-connect-scan
// pipeline can be exercised end to end.
func adapterFor(name string, seed int64) venue.Adapter {
	basePrices := map[string]float64{
		"BTC/USDT": 60000,
		"ETH/USDT": 3000,
	}
	return simulated.New(name, basePrices, 20, 5, 500*time.Millisecond, seed)
}
