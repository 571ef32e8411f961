package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/api"
	"github.com/rubiojr/enigma/internal/cache"
	"github.com/rubiojr/enigma/internal/config"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/log"
)

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the convert and crack HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "address",
				Usage:   "Address to listen on",
				EnvVars: []string{"ENIGMA_API_ADDRESS"},
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of shards searched at once per crack request",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfigFromCLI(c)
			if err != nil {
				return err
			}
			machine, err := cfg.BuildMachine()
			if err != nil {
				return err
			}

			results := newCache(cfg)
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go resetCacheOn(c.Context, hup, results)

			searcher := keysearch.New(
				machine,
				keysearch.WithConcurrency(cfg.Crack.Concurrency),
				keysearch.WithCache(results),
			)
			return api.Serve(c.Context, cfg.API.Address, searcher)
		},
	}
}

// resetCacheOn clears the crack result cache every time a signal arrives.
func resetCacheOn(ctx context.Context, signals <-chan os.Signal, results cache.Cache) {
	for {
		select {
		case sig := <-signals:
			results.Reset()
			log.Printf("crack result cache cleared (%s)", sig)
		case <-ctx.Done():
			return
		}
	}
}
