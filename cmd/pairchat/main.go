package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pairchat/internal/app"
	"pairchat/pkg/banner"
	"pairchat/pkg/config"
	"pairchat/pkg/logger"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "path to config file (YAML)")
		addr    = flag.String("addr", "", "listen address override (host)")
		port    = flag.Int("port", 0, "listen port override")
		dbPath  = flag.String("db", "", "database path override")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	logger.Init(cfg.Logging.Level)
	banner.Print(cfg, version)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("startup_failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_error", "err", err)
		os.Exit(1)
	}
}
