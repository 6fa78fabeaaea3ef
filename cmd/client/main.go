package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hamarchia/ClinicSystem/internal/client/cli"
	"github.com/hamarchia/ClinicSystem/internal/client/config"
	"github.com/hamarchia/ClinicSystem/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(logging.BackendSlog, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
