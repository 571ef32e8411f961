package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/api"
)

func commandMachine() *cli.Command {
	return &cli.Command{
		Name:  "machine",
		Usage: "Show the rotor and reflector tables the server runs with",
		Action: func(c *cli.Context) error {
			client := api.NewClient(c.String("server"))
			info, err := client.Machine(c.Context)
			if err != nil {
				return err
			}

			for i, r := range info.Rotors {
				fmt.Printf("Rotor %d:   %s\n", i+1, r)
			}
			fmt.Printf("Reflector: %s\n", info.Reflector)
			fmt.Printf("Fingerprint: %s\n", info.Fingerprint)
			return nil
		},
	}
}
