package main

import (
	"context"
	"os"

	"github.com/yukikurage/taskboard-api/internal/cli"
	"github.com/yukikurage/taskboard-api/internal/logging"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logging.Logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
