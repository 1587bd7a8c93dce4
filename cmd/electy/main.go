package main

import (
	"context"
	"os"

	"github.com/Lord-Y/electy/cmd/electy/commands"
	"github.com/Lord-Y/electy/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := cli.Command{
		Name:                  "electy",
		Usage:                 "Leader election simulator",
		Description:           "Run simulated clusters of election peers",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			commands.Simulate(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.NewLogger().Fatal().Err(err).Msg("Error occured while executing the program")
	}
}
