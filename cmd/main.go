package main

import (
	"context"
	"log"

	application "github.com/sparrowryan/sb-rate-parity/cmd/rateparity"
	"github.com/sparrowryan/sb-rate-parity/config"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	app := application.NewApp(cfg)
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("run error: %v", err)
	}
}
