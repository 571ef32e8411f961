package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/rubiojr/enigma/internal/config"
	"github.com/rubiojr/enigma/internal/engine"
)

func commandConvert() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Aliases:   []string{"c"},
		Usage:     "Encrypt or decrypt text (the same operation)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{Name: "s1", Usage: "Setting of rotor 1 (0-25)"},
			&cli.IntFlag{Name: "s2", Usage: "Setting of rotor 2 (0-25)"},
			&cli.IntFlag{Name: "s3", Usage: "Setting of rotor 3 (0-25)"},
		},
		Action: runConvert,
	}
}

func runConvert(c *cli.Context) error {
	cfg, err := config.LoadConfigFromCLI(c)
	if err != nil {
		return err
	}
	machine, err := cfg.BuildMachine()
	if err != nil {
		return err
	}

	settings := engine.Settings{c.Int("s1"), c.Int("s2"), c.Int("s3")}
	anySet := c.IsSet("s1") || c.IsSet("s2") || c.IsSet("s3")

	if c.NArg() > 0 {
		out, err := machine.Convert(strings.Join(c.Args().Slice(), " "), settings[0], settings[1], settings[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, out)
		return nil
	}

	if !anySet && term.IsTerminal(int(os.Stdin.Fd())) {
		return interactiveConvert(machine, os.Stdin, c.App.Writer)
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	return convertLines(machine, settings, os.Stdin, c.App.Writer)
}

// interactiveConvert asks for the three settings, re-asking until each is
// valid, then converts one line of text.
func interactiveConvert(machine *engine.Machine, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)

	var settings engine.Settings
	for i := range settings {
		v, err := promptSetting(br, w, i+1)
		if err != nil {
			return err
		}
		settings[i] = v
	}

	fmt.Fprintln(w, "Type the plaintext to encrypt or the ciphertext to decrypt:")
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read text: %v", err)
	}

	out, err := machine.Convert(line, settings[0], settings[1], settings[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "The converted text is:\n%s\n", out)
	return nil
}

func promptSetting(br *bufio.Reader, w io.Writer, rotor int) (int, error) {
	for {
		fmt.Fprintf(w, "Pick a number between %d and %d for the setting of rotor #%d: ", engine.MinSetting, engine.MaxSetting, rotor)
		line, err := br.ReadString('\n')
		if v, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && v >= engine.MinSetting && v <= engine.MaxSetting {
			return v, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("no valid setting given for rotor %d", rotor)
			}
			return 0, fmt.Errorf("failed to read setting: %v", err)
		}
	}
}

// convertLines converts every input line on its own, starting from the same settings.
func convertLines(machine *engine.Machine, settings engine.Settings, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out, err := machine.Convert(scanner.Text(), settings[0], settings[1], settings[2])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return fmt.Errorf("error writing output: %v", err)
		}
	}
	return scanner.Err()
}
