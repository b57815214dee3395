package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sentinelsignal/sentinel/cmd/sentinel/startup"
	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("sentinel_starting")

	app, err := startup.InitializeApplication(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", err)
	}

	if err := app.Start(); err != nil {
		log.Fatal("failed to start application", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown_signal_received", map[string]interface{}{"signal": sig.String()})

	if err := app.Stop(); err != nil {
		log.Error("shutdown_error", err)
		os.Exit(1)
	}

	log.Info("sentinel_stopped")
}
