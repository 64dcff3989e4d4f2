package main

import (
	"context"
	"log"
	"os"

	"github.com/interestIngc/cyphershare/internal/buildinfo"
	"github.com/interestIngc/cyphershare/internal/client/cli"
	"github.com/interestIngc/cyphershare/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
