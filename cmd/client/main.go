package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kodbank/kodbank/internal/client/cli"
	"github.com/kodbank/kodbank/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
