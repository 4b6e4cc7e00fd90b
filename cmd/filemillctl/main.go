package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/filemill/internal/cli"
)

func main() {

	ctx := context.Background()
	cfg := cli.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
