package main

import (
	"context"
	"log"
	"os"

	"github.com/mkarev/otpkeeper/internal/buildinfo"
	"github.com/mkarev/otpkeeper/internal/cli"
	"github.com/mkarev/otpkeeper/internal/config"
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

	app.Run(ctx)

}
