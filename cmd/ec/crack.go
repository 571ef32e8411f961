package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/api"
	"github.com/rubiojr/enigma/internal/types"
)

func commandCrack() *cli.Command {
	return &cli.Command{
		Name:      "crack",
		Aliases:   []string{"k"},
		Usage:     "Recover rotor settings on the server",
		ArgsUsage: "<ciphertext...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "fragment",
				Aliases:  []string{"f"},
				Usage:    "Known part of the plaintext",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of candidates to print (0 for all)",
				Value: 0,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("ciphertext argument is required")
			}

			client := api.NewClient(c.String("server"))
			resp, err := client.Crack(c.Context, strings.Join(c.Args().Slice(), " "), c.String("fragment"))
			if err != nil {
				return err
			}

			printCandidates(resp.Candidates, c.Int("limit"))
			fmt.Println(strings.Repeat("-", 40))
			fmt.Printf("Candidates: %s\n", humanize.Comma(int64(resp.Count)))
			fmt.Printf("Settings tried: %s\n", humanize.Comma(int64(resp.Tried)))
			fmt.Printf("Server time: %s\n", time.Duration(resp.ElapsedMS)*time.Millisecond)
			return nil
		},
	}
}

func printCandidates(candidates []types.Candidate, limit int) {
	for i, c := range candidates {
		if limit > 0 && i >= limit {
			fmt.Printf("... %s more\n", humanize.Comma(int64(len(candidates)-limit)))
			return
		}
		fmt.Printf("%2d %2d %2d: %s\n", c.Setting1, c.Setting2, c.Setting3, c.Decoded)
	}
}
