package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/rubiojr/enigma/internal/cache"
	"github.com/rubiojr/enigma/internal/config"
	"github.com/rubiojr/enigma/internal/crypto"
	"github.com/rubiojr/enigma/internal/dispatch"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/types"
)

type cracker interface {
	Crack(ctx context.Context, ciphertext, fragment string) ([]types.Candidate, error)
}

func commandCrack() *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:     "fragment",
			Aliases:  []string{"f"},
			Usage:    "Known part of the plaintext",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of shards searched at once",
		},
		&cli.BoolFlag{
			Name:  "distributed",
			Usage: "Send shards to NATS workers instead of searching locally",
		},
		&cli.StringFlag{
			Name:    "seal-to",
			Usage:   "Encrypt the report to this age public key",
			EnvVars: []string{"ENIGMA_SEAL_TO"},
		},
	}

	return &cli.Command{
		Name:      "crack",
		Aliases:   []string{"k"},
		Usage:     "Recover rotor settings from ciphertext and a known fragment",
		ArgsUsage: "[ciphertext...]",
		Flags:     append(flags, natsFlags()...),
		Action:    runCrack,
	}
}

func runCrack(c *cli.Context) error {
	cfg, err := config.LoadConfigFromCLI(c)
	if err != nil {
		return err
	}
	machine, err := cfg.BuildMachine()
	if err != nil {
		return err
	}

	ciphertext := strings.Join(c.Args().Slice(), " ")
	if ciphertext == "" {
		b, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read ciphertext: %v", err)
		}
		ciphertext = string(b)
	}

	var sealer crypto.Machine
	if to := c.String("seal-to"); to != "" {
		sealer, err = crypto.NewAgeRecipient(to)
		if err != nil {
			return err
		}
	}

	progress := make(chan int)
	var searcher cracker
	if c.Bool("distributed") {
		nc, err := dispatch.Connect(cfg.Nats.ServerURL, cfg.Nats.ClientCert, cfg.Nats.ClientKey, cfg.Nats.CACert)
		if err != nil {
			return err
		}
		defer nc.Close()
		searcher = dispatch.NewCoordinator(
			nc,
			machine,
			dispatch.WithSubject(cfg.Nats.Subject),
			dispatch.WithTimeout(time.Duration(cfg.Nats.Timeout)*time.Second),
			dispatch.WithProgress(progress),
		)
	} else {
		searcher = keysearch.New(
			machine,
			keysearch.WithConcurrency(cfg.Crack.Concurrency),
			keysearch.WithProgress(progress),
		)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		showProgress(progress, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	}()

	start := time.Now()
	found, err := searcher.Crack(c.Context, ciphertext, c.String("fragment"))
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("crack failed: %w", err)
	}

	report := formatReport(found, time.Since(start))
	if sealer != nil {
		sealed, err := sealer.Encrypt([]byte(report))
		if err != nil {
			return fmt.Errorf("failed to seal report: %v", err)
		}
		_, err = c.App.Writer.Write(sealed)
		return err
	}

	_, err = io.WriteString(c.App.Writer, report)
	return err
}

func showProgress(progress <-chan int, w io.Writer, live bool) {
	var tried int64
	for n := range progress {
		tried += int64(n)
		if live {
			fmt.Fprintf(w, "Tried [%s/%s] settings (%.0f%%)\r",
				humanize.Comma(tried), humanize.Comma(keysearch.Keyspace),
				float64(tried)/float64(keysearch.Keyspace)*100)
		}
	}
	if live {
		fmt.Fprintln(w)
	}
}

// formatReport lists one candidate per line followed by a summary.
func formatReport(found []types.Candidate, elapsed time.Duration) string {
	var sb strings.Builder
	for _, c := range found {
		fmt.Fprintf(&sb, "%2d %2d %2d: %s\n", c.Setting1, c.Setting2, c.Setting3, c.Decoded)
	}
	fmt.Fprintf(&sb, "%s candidates out of %s settings in %s\n",
		humanize.Comma(int64(len(found))),
		humanize.Comma(keysearch.Keyspace),
		elapsed.Round(time.Millisecond))
	return sb.String()
}

// newCache builds the crack result cache for long-running commands.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.Crack.CacheSizeMB <= 0 {
		return cache.NewNoopCache()
	}
	return cache.NewResultCache(cfg.Crack.CacheSizeMB)
}
