package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"thestreet.dev/internal/economy"
	logdir "thestreet.dev/internal/persistence/log"
	"thestreet.dev/internal/persistence/store"
	"thestreet.dev/internal/sim/world"
	"thestreet.dev/internal/transport/ws"
	"thestreet.dev/internal/tuning"
	"thestreet.dev/internal/wallet"
)

func main() {
	var (
		addr       = flag.String("addr", "", "listen address (overrides config)")
		configPath = flag.String("config", "configs/relay.yaml", "path to relay config")
		dataDir    = flag.String("data", "", "data directory (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[relay] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := tuning.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("config: %v", err)
		}
		logger.Printf("config %s not found, using defaults", *configPath)
	}
	if *addr != "" {
		cfg.BindAddr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	fee := economy.FeeConfig{Mode: economy.FeeMode(cfg.Fee.Mode), Value: cfg.Fee.Value}
	if err := fee.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "relay.db"))
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer st.Close()
	users, err := st.LoadUsers()
	if err != nil {
		logger.Fatalf("load users: %v", err)
	}
	rooms, err := st.LoadRooms()
	if err != nil {
		logger.Fatalf("load rooms: %v", err)
	}
	logger.Printf("restored %d users, %d rooms", len(users), len(rooms))

	chatLog := logdir.NewChatLogger(cfg.DataDir)
	defer chatLog.Close()
	auditLog := logdir.NewAuditLogger(cfg.DataDir)
	defer auditLog.Close()

	mock := wallet.NewMock()
	w := world.New(world.Deps{
		Cfg: cfg,
		Log: log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds),
		Economy: &economy.Service{
			Wallet:    mock,
			DevPubkey: cfg.DevWalletPubkey,
			Fee:       fee,
		},
		Store:  st,
		Faucet: mock,
		Chat:   chatLog,
		Audit:  auditLog,
	})
	w.Restore(users, rooms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go w.Run(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: ws.NewServer(cfg, logger, w),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", cfg.BindAddr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("shutting down")
}
