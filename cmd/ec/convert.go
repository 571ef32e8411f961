package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/api"
)

func commandConvert() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Aliases:   []string{"c"},
		Usage:     "Encrypt or decrypt text on the server",
		ArgsUsage: "<text...>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "s1", Usage: "Setting of rotor 1 (0-25)"},
			&cli.IntFlag{Name: "s2", Usage: "Setting of rotor 2 (0-25)"},
			&cli.IntFlag{Name: "s3", Usage: "Setting of rotor 3 (0-25)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("text argument is required")
			}

			client := api.NewClient(c.String("server"))
			out, err := client.Convert(c.Context, strings.Join(c.Args().Slice(), " "), c.Int("s1"), c.Int("s2"), c.Int("s3"))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
