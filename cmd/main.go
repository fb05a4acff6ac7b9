package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BetterCallFirewall/Bastion/internal/config"
	"github.com/BetterCallFirewall/Bastion/internal/driven"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bastion, err := driven.NewBastion(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bastion: %v", err)
	}

	if err := bastion.Run(ctx, cfg.Web.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
