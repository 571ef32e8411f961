// Package engine implements the self-reciprocal rotor cipher.
//
// A letter goes forward through rotors 1, 2 and 3, each turned to its
// current setting, bounces off the reflector, and comes back through rotors
// 3, 2 and 1 with the setting subtracted again. Because every table is an
// involution and the reflector has no fixed points, running the same
// settings over the output restores the input, and no letter ever encrypts
// to itself.
package engine

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/pairmap"
	"github.com/rubiojr/enigma/internal/rotor"
)

const (
	MinSetting = 0
	MaxSetting = pairmap.AlphabetSize - 1

	// carryAt is where a rotor wraps and carries into the next one. It is one
	// short of the alphabet size, so a rotor carries a step early; existing
	// ciphertexts depend on this.
	carryAt = pairmap.AlphabetSize - 1
)

// Settings are the three rotor offsets, rotor 1 first.
type Settings [rotor.NumRotors]int

// Validate checks every setting is in [0,25].
func (s Settings) Validate() error {
	for i, v := range s {
		if v < MinSetting || v > MaxSetting {
			return &errmsg.RangeError{Rotor: i + 1, Value: v}
		}
	}
	return nil
}

// step advances the settings odometer-style.
func (s *Settings) step() {
	s[0]++
	if s[0] < carryAt {
		return
	}
	s[0] = 0
	s[1]++
	if s[1] < carryAt {
		return
	}
	s[1] = 0
	s[2] = (s[2] + 1) % pairmap.AlphabetSize
}

type Machine struct {
	bank        *rotor.Bank
	fingerprint uint64
}

// New returns a machine wired with the given rotor bank.
func New(bank *rotor.Bank) *Machine {
	h := xxhash.New()
	for _, p := range bank.RotorPatterns() {
		h.WriteString(p)
		h.WriteString("|")
	}
	h.WriteString(bank.ReflectorPattern())

	return &Machine{bank: bank, fingerprint: h.Sum64()}
}

// Default returns a machine wired with the built-in tables.
func Default() *Machine {
	return New(rotor.Default())
}

// Bank returns the machine's tables.
func (m *Machine) Bank() *rotor.Bank {
	return m.bank
}

// Fingerprint identifies the machine's tables. Two machines with the same
// fingerprint produce the same output for the same input.
func (m *Machine) Fingerprint() uint64 {
	return m.fingerprint
}

// Normalize uppercases text and drops everything outside A-Z.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		if r >= 'A' && r <= 'Z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Convert encrypts or decrypts text; the operation is its own inverse.
// Text is normalized first, so spaces and punctuation are lost.
func (m *Machine) Convert(text string, setting1, setting2, setting3 int) (string, error) {
	settings := Settings{setting1, setting2, setting3}
	if err := settings.Validate(); err != nil {
		return "", err
	}
	return m.ConvertNormalized(Normalize(text), settings)
}

// ConvertNormalized is Convert for text already passed through Normalize and
// settings already validated. Callers converting the same text many times use
// it to skip the repeated work.
func (m *Machine) ConvertNormalized(text string, settings Settings) (string, error) {
	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		l, err := pairmap.LetterOf(rune(text[i]))
		if err != nil {
			return "", fmt.Errorf("%w: %w", errmsg.ErrEngineFault, err)
		}
		c, err := m.convertLetter(l, &settings)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errmsg.ErrEngineFault, err)
		}
		out[i] = byte(c.Rune())
		settings.step()
	}
	return string(out), nil
}

func (m *Machine) convertLetter(l pairmap.Letter, s *Settings) (pairmap.Letter, error) {
	var err error
	for i := 0; i < rotor.NumRotors; i++ {
		if l, err = m.bank.Forward(i, l, s[i]); err != nil {
			return 0, err
		}
	}

	if l, err = m.bank.Reflect(l); err != nil {
		return 0, err
	}

	for i := rotor.NumRotors - 1; i >= 0; i-- {
		if l, err = m.bank.Reverse(i, l, s[i]); err != nil {
			return 0, err
		}
	}
	return l, nil
}
