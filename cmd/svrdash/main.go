// Command svrdash serves the stock price SVR dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezoic/svrdash/internal/config"
	"github.com/ezoic/svrdash/internal/server"
	"github.com/ezoic/svrdash/pkg/log"
)

func main() {
	configFile := flag.String("config", "", "optional config file (yaml, json or toml)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}
	log.SetupLogger(cfg.Log.Level)

	srv, err := server.New(cfg)
	if err != nil {
		log.LogError(err, "Failed to create server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}
