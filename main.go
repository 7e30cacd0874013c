package main

import (
	"context"
	"log"
	"os"

	"github.com/pliu/blog/internal/config"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.Debug)

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
