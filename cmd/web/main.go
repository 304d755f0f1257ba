package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/elibrary/internal/buildinfo"
	"github.com/dmitrijs2005/elibrary/internal/config"
	"github.com/dmitrijs2005/elibrary/internal/web"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := web.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
