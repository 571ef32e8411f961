package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/log"
)

//go:embed configs
var configFiles embed.FS

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		EnvVars: []string{"ENIGMA_DEBUG"},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the configuration file",
		EnvVars: []string{"ENIGMA_CONFIG"},
	}
}

func natsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server URL",
			EnvVars: []string{"ENIGMA_NATS_URL"},
		},
		&cli.StringFlag{
			Name:    "subject",
			Usage:   "Subject shard requests are sent to",
			EnvVars: []string{"ENIGMA_NATS_SUBJECT"},
		},
		&cli.StringFlag{
			Name:  "client-cert",
			Usage: "Client certificate for mutual TLS",
		},
		&cli.StringFlag{
			Name:  "client-key",
			Usage: "Client key for mutual TLS",
		},
		&cli.StringFlag{
			Name:  "ca-cert",
			Usage: "CA certificate for mutual TLS",
		},
	}
}

func main() {
	app := &cli.App{
		Name:  "enigma",
		Usage: "Rotor cipher machine and brute-force key recovery",
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.EnableDebug()
			}
			return nil
		},
		Flags: []cli.Flag{debugFlag()},
		Commands: []*cli.Command{
			commandConvert(),
			commandCrack(),
			commandServe(),
			commandConfig(),
			commandWorker(),
			{
				Name:  "nats",
				Usage: "Start embedded NATS server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to listen on",
					},
					&cli.IntFlag{
						Name:  "http-port",
						Usage: "HTTP monitoring port (0 to disable)",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to the NATS configuration file",
						Value: "",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Value: false,
						Usage: "Enable debug logging",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Value: false,
						Usage: "Enable trace logging",
					},
				},
				Action: func(c *cli.Context) error {
					return startEmbeddedNATSServer(c)
				},
			},
			{
				Name:  "setup",
				Usage: "Setup initial configuration files",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing configuration files",
						Value: false,
					},
				},
				Action: func(c *cli.Context) error {
					return setupConfig(c.Bool("force"))
				},
			},
			commandKeygen(),
			commandRecipient(),
			commandUnseal(),
			commandVersion(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
