package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/log"
)

func main() {
	app := &cli.App{
		Name:  "ec",
		Usage: "Convert and crack messages on a remote enigma server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "enigma API URL",
				Value:   "http://localhost:8449",
				EnvVars: []string{"ENIGMA_SERVER"},
			},
		},
	}

	app.Commands = append(
		app.Commands,
		commandConvert(),
		commandCrack(),
		commandMachine(),
		commandVersion(),
	)

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
