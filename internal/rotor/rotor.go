package rotor

import (
	"fmt"

	"github.com/rubiojr/enigma/internal/pairmap"
)

// NumRotors is the number of rotors in a Bank.
const NumRotors = 3

// Built-in pairings. Rotor 3 pairs every letter with the one 13 places away.
const (
	Rotor1Pattern    = "AK CN EZ VH IJ BL MD SR QP OT UG WX YF"
	Rotor2Pattern    = "AC EG IJ KM OQ SU WY XZ TV PR LN HF DB"
	Rotor3Pattern    = "AN BO CP DQ ER FS GT HU IV JW KX LY MZ"
	ReflectorPattern = "AB CD EF GH IJ KL MN OP QR ST UV WX YZ"
)

// DefaultRotorPatterns returns the built-in rotor pairings in rotor order.
func DefaultRotorPatterns() []string {
	return []string{Rotor1Pattern, Rotor2Pattern, Rotor3Pattern}
}

var defaultBank = &Bank{
	rotors: [NumRotors]*pairmap.PairMap{
		pairmap.MustParse(Rotor1Pattern),
		pairmap.MustParse(Rotor2Pattern),
		pairmap.MustParse(Rotor3Pattern),
	},
	reflector: pairmap.MustParse(ReflectorPattern),
}

// Bank holds the three rotor tables and the reflector. It is immutable.
type Bank struct {
	rotors    [NumRotors]*pairmap.PairMap
	reflector *pairmap.PairMap
}

// Default returns the bank built from the built-in patterns.
func Default() *Bank {
	return defaultBank
}

// NewBank builds a bank from three rotor patterns and a reflector pattern.
func NewBank(rotorPatterns []string, reflectorPattern string) (*Bank, error) {
	if len(rotorPatterns) != NumRotors {
		return nil, fmt.Errorf("exactly %d rotors must be specified, got %d", NumRotors, len(rotorPatterns))
	}

	b := &Bank{}
	for i, p := range rotorPatterns {
		pm, err := pairmap.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("rotor %d: %w", i+1, err)
		}
		b.rotors[i] = pm
	}

	refl, err := pairmap.Parse(reflectorPattern)
	if err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}
	b.reflector = refl

	return b, nil
}

// Forward passes l through rotor i (0-based) turned to setting: the setting
// selects which contact the letter reaches before substitution.
func (b *Bank) Forward(i int, l pairmap.Letter, setting int) (pairmap.Letter, error) {
	return b.rotors[i].Lookup(l.Shift(setting))
}

// Reverse undoes Forward for the same rotor and setting.
func (b *Bank) Reverse(i int, l pairmap.Letter, setting int) (pairmap.Letter, error) {
	m, err := b.rotors[i].Lookup(l)
	if err != nil {
		return 0, err
	}
	return m.Shift(-setting), nil
}

// Reflect substitutes l through the reflector.
func (b *Bank) Reflect(l pairmap.Letter) (pairmap.Letter, error) {
	return b.reflector.Lookup(l)
}

// RotorPatterns returns the normalized rotor patterns in rotor order.
func (b *Bank) RotorPatterns() []string {
	patterns := make([]string, NumRotors)
	for i, r := range b.rotors {
		patterns[i] = r.Pattern()
	}
	return patterns
}

// ReflectorPattern returns the normalized reflector pattern.
func (b *Bank) ReflectorPattern() string {
	return b.reflector.Pattern()
}
