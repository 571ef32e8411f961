package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/crypto"
)

func commandKeygen() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an age key pair for sealing crack reports",
		Action: func(c *cli.Context) error {
			pub, priv, err := crypto.GenerateAgeKeyPair()
			if err != nil {
				return fmt.Errorf("failed to generate key pair: %v", err)
			}
			fmt.Fprintf(c.App.Writer, "# public key: %s\n%s\n", pub, priv)
			return nil
		},
	}
}

func commandRecipient() *cli.Command {
	return &cli.Command{
		Name:      "recipient",
		Usage:     "Print the public key to pass to crack --seal-to",
		ArgsUsage: "<identity-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("identity file argument is required")
			}
			key, err := readIdentity(c.Args().First())
			if err != nil {
				return err
			}
			pub, err := crypto.DerivePublicKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, pub)
			return nil
		},
	}
}

func commandUnseal() *cli.Command {
	return &cli.Command{
		Name:      "unseal",
		Usage:     "Decrypt a sealed crack report",
		ArgsUsage: "[report-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "identity",
				Aliases:  []string{"i"},
				Usage:    "File holding the age private key",
				Required: true,
				EnvVars:  []string{"ENIGMA_IDENTITY"},
			},
		},
		Action: func(c *cli.Context) error {
			key, err := readIdentity(c.String("identity"))
			if err != nil {
				return err
			}
			opener, err := crypto.NewAge(key)
			if err != nil {
				return err
			}

			in := io.Reader(os.Stdin)
			if c.NArg() > 0 {
				f, err := os.Open(c.Args().First())
				if err != nil {
					return fmt.Errorf("failed to open report: %v", err)
				}
				defer f.Close()
				in = f
			}

			sealed, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read report: %v", err)
			}
			report, err := opener.Decrypt(sealed)
			if err != nil {
				return fmt.Errorf("failed to unseal report: %v", err)
			}
			_, err = c.App.Writer.Write(report)
			return err
		},
	}
}

// readIdentity returns the first non-comment line of an identity file, as
// written by keygen.
func readIdentity(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read identity: %v", err)
	}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	return "", fmt.Errorf("no identity found in %s", path)
}
