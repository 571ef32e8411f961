package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/config"
)

func commandConfig() *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Write the effective configuration back to the config file",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of shards searched at once",
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "Address the API listens on",
		},
	}

	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration, after flag overrides",
		Flags: append(flags, natsFlags()...),
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfigFromCLI(c)
			if err != nil {
				return err
			}
			if _, err := cfg.BuildMachine(); err != nil {
				return err
			}
			return showConfig(cfg, c.App.Writer, c.Bool("save"))
		},
	}
}

func showConfig(cfg *config.Config, w io.Writer, save bool) error {
	if !save {
		return config.WriteConfig(w, cfg)
	}

	if err := config.SaveConfig(cfg, cfg.Path); err != nil {
		return err
	}
	fmt.Fprintf(w, "Configuration saved to %s\n", cfg.Path)
	return nil
}
