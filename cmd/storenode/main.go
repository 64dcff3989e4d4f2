package main

import (
	"context"
	"log"

	"github.com/interestIngc/cyphershare/internal/storenode"
	"github.com/interestIngc/cyphershare/internal/storenode/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := storenode.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
