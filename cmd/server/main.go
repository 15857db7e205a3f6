package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credchain/internal/config"
	"credchain/internal/credential"
	"credchain/internal/eth"
	"credchain/internal/handlers"
	"credchain/internal/profile"
	"credchain/internal/router"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ledger, err := eth.Dial(eth.Options{
		RPCURL:          cfg.RPCURL,
		PrivateKey:      cfg.PrivateKey,
		ContractAddress: cfg.ContractAddress,
		ChainID:         cfg.ChainID,
		CallTimeout:     cfg.CallTimeout,
		TxTimeout:       cfg.TxTimeout,
	}, logger)
	if err != nil {
		logger.Error("ledger connection error", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()
	logger.Info("connected to ledger",
		"contract", cfg.ContractAddress,
		"signer", ledger.Signer().Hex(),
		"chain_id", cfg.ChainID,
	)

	var cache credential.Cache
	if cfg.RedisURL != "" {
		rc, err := credential.NewRedisCache(cfg.RedisURL, logger)
		if err != nil {
			logger.Error("redis configuration error", "error", err)
			os.Exit(1)
		}
		cache = rc
		logger.Info("credential cache enabled")
	}

	gate := credential.NewGate(ledger, cfg.AutoAuthorize, logger)
	if cfg.AutoAuthorize {
		logger.Warn("auto-authorization is enabled; unauthorized issuers will be granted mint permission on first use")
	}
	svc := credential.NewService(ledger, gate, cache, cfg.ReadRetries, logger)
	profiles := profile.NewStore()

	h := handlers.New(svc, profiles, []byte(cfg.ShareTokenSecret), cfg.FrontendBaseURL, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
