package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veritymkt/verity/internal/ledger"
	"github.com/veritymkt/verity/internal/server"
	"github.com/veritymkt/verity/internal/services"
	"github.com/veritymkt/verity/pkg/config"
	"github.com/veritymkt/verity/pkg/logger"
	"github.com/veritymkt/verity/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("VERITY_CONFIG"), "config file path (yaml or json, optional)")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	store, err := ledger.Open(ledger.Options{Path: cfg.Ledger.Dir})
	if err != nil {
		log.Fatalf("open ledger failed: %v", err)
	}

	mkt := services.NewMarketplace(store)

	srv, err := server.New(server.Config{
		Addr:       cfg.Server.Listen,
		DBPath:     cfg.Server.ReceiptsDB,
		RatePerSec: cfg.Server.RatePerSec,
	}, mkt)
	if err != nil {
		log.Fatalf("init server failed: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(ctx context.Context) { _ = httpSrv.Shutdown(ctx) })
	mgr.OnShutdown(func(ctx context.Context) { _ = srv.Close() })
	mgr.OnShutdown(func(ctx context.Context) { _ = store.Close() })

	go func() {
		log.Printf("marketplace listening on %s", cfg.Server.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)

	fmt.Println("server stopped")
}
