package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/config"
	"github.com/rubiojr/enigma/internal/dispatch"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/log"
)

func commandWorker() *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "queue",
			Usage: "Queue group shared by workers",
		},
		&cli.IntFlag{
			Name:    "stats-interval",
			Usage:   "Interval in seconds to print statistics (0 to disable)",
			Value:   60,
			EnvVars: []string{"ENIGMA_STATS_INTERVAL"},
		},
	}

	return &cli.Command{
		Name:  "worker",
		Usage: "Answer distributed crack shards received over NATS",
		Flags: append(flags, natsFlags()...),
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfigFromCLI(c)
			if err != nil {
				return err
			}
			machine, err := cfg.BuildMachine()
			if err != nil {
				return err
			}

			queue := cfg.Nats.Queue
			if c.String("queue") != "" {
				queue = c.String("queue")
			}

			nc, err := dispatch.Connect(cfg.Nats.ServerURL, cfg.Nats.ClientCert, cfg.Nats.ClientKey, cfg.Nats.CACert)
			if err != nil {
				return err
			}
			defer nc.Close()

			w := dispatch.NewWorker(
				nc,
				keysearch.New(machine, keysearch.WithConcurrency(cfg.Crack.Concurrency)),
				dispatch.WithWorkerSubject(cfg.Nats.Subject),
				dispatch.WithQueue(queue),
				dispatch.WithDrainTimeout(time.Duration(cfg.Nats.Timeout)*time.Second),
			)

			if interval := c.Int("stats-interval"); interval > 0 {
				go printStats(c.Context, w.Stats(), time.Duration(interval)*time.Second)
			}

			return w.Listen(c.Context)
		},
	}
}

func printStats(ctx context.Context, stats *dispatch.WorkerStats, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Printf("%s", stats)
		case <-ctx.Done():
			return
		}
	}
}
