package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe/internal/config"
	"github.com/optimode/mailprobe/internal/server"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := cfg.Logger()

	srv := server.New(cfg.Verifier(log), server.Options{
		MaxBatch: cfg.MaxBatch,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      cfg.ListenAddr,
			"helo":      cfg.HeloDomain,
			"proxy":     cfg.ProxyAddr != "",
			"cache_ttl": cfg.DNSCacheTTL.String(),
		}).Info("mailprobe server starting")
		errc <- srv.Listen(cfg.ListenAddr)
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}
}
