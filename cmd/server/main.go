package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server"
	"github.com/dmitrijs2005/agrocms/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxAge)
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer rw.Close()
		out = io.MultiWriter(os.Stdout, rw)
	}

	app, err := server.NewApp(ctx, cfg, out)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
