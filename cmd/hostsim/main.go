package main

import (
	"log"
	"net/http"
	"os"

	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/hostsim"
	"github.com/HsiangNianian/hybridbridge/internal/logging"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("HOSTSIM_CONFIG"))
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var st store.Store
	if cfg.Store.RedisAddr != "" {
		st = store.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.KeyPrefix, cfg.Store.TTL())
		logger.Info("use redis store", zap.String("addr", cfg.Store.RedisAddr))
	} else {
		st = store.NewMemoryStore()
		logger.Info("use memory store")
	}

	hub, err := hostsim.NewHub(st, cfg.Host, logger)
	if err != nil {
		logger.Fatal("init host simulator failed", zap.Error(err))
	}

	router := hostsim.NewRouter(hub, cfg.Host)

	logger.Info("host simulator listening",
		zap.String("addr", cfg.Host.ListenAddr),
		zap.String("platform", cfg.Host.Platform),
		zap.String("version", cfg.Host.Version),
	)
	if err := http.ListenAndServe(cfg.Host.ListenAddr, router); err != nil {
		logger.Fatal("host simulator failed", zap.Error(err))
	}
}
