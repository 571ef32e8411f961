// Package pairmap implements the fixed letter-pair substitution tables used by
// rotors and reflectors.
package pairmap

import (
	"fmt"
	"strings"

	"github.com/rubiojr/enigma/internal/errmsg"
)

// AlphabetSize is the number of letters a PairMap covers.
const AlphabetSize = 26

// NumPairs is the number of disjoint pairs in a valid pattern.
const NumPairs = AlphabetSize / 2

// Letter is an alphabet index in [0,25], A=0.
type Letter uint8

// LetterOf converts an ASCII letter, either case, to a Letter.
func LetterOf(r rune) (Letter, error) {
	switch {
	case r >= 'A' && r <= 'Z':
		return Letter(r - 'A'), nil
	case r >= 'a' && r <= 'z':
		return Letter(r - 'a'), nil
	}
	return 0, &errmsg.SymbolError{Symbol: r}
}

// Rune returns the uppercase ASCII form of l.
func (l Letter) Rune() rune {
	return rune('A' + l)
}

// Shift moves l by n positions around the alphabet, wrapping in both directions.
func (l Letter) Shift(n int) Letter {
	v := (int(l) + n) % AlphabetSize
	if v < 0 {
		v += AlphabetSize
	}
	return Letter(v)
}

// PairMap is an immutable involution over the alphabet: every letter is
// paired with exactly one other letter, and looking either one up yields
// its partner.
type PairMap struct {
	pattern string
	table   [AlphabetSize]Letter
	valid   [AlphabetSize]bool
}

// Parse builds a PairMap from 13 whitespace-delimited two-letter tokens.
// Letters are case-insensitive. Each token must hold two different letters
// and the pairs together must cover the alphabet exactly once.
func Parse(pattern string) (*PairMap, error) {
	tokens := strings.Fields(strings.ToUpper(pattern))
	if len(tokens) != NumPairs {
		return nil, &errmsg.FormatError{
			Pattern: pattern,
			Reason:  fmt.Sprintf("expected %d pairs, got %d", NumPairs, len(tokens)),
		}
	}

	pm := &PairMap{pattern: strings.Join(tokens, " ")}
	for _, tok := range tokens {
		if len(tok) != 2 {
			return nil, &errmsg.FormatError{Pattern: pattern, Reason: fmt.Sprintf("pair %q is not two letters", tok)}
		}
		a, errA := LetterOf(rune(tok[0]))
		b, errB := LetterOf(rune(tok[1]))
		if errA != nil || errB != nil {
			return nil, &errmsg.FormatError{Pattern: pattern, Reason: fmt.Sprintf("pair %q contains a non-letter", tok)}
		}
		if a == b {
			return nil, &errmsg.FormatError{Pattern: pattern, Reason: fmt.Sprintf("pair %q maps a letter to itself", tok)}
		}
		for _, l := range []Letter{a, b} {
			if pm.valid[l] {
				return nil, &errmsg.FormatError{Pattern: pattern, Reason: fmt.Sprintf("letter %c appears more than once", l.Rune())}
			}
			pm.valid[l] = true
		}
		pm.table[a] = b
		pm.table[b] = a
	}

	// 13 distinct pairs of distinct letters with no repeats always cover all 26.
	return pm, nil
}

// MustParse is like Parse but panics on error. Used for the built-in tables.
func MustParse(pattern string) *PairMap {
	pm, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return pm
}

// Lookup returns the partner of l.
func (pm *PairMap) Lookup(l Letter) (Letter, error) {
	if int(l) >= AlphabetSize {
		return 0, &errmsg.SymbolError{Symbol: rune('A') + rune(l)}
	}
	if pm == nil || !pm.valid[l] {
		return 0, fmt.Errorf("%w: %c", errmsg.ErrLetterNotMapped, l.Rune())
	}
	return pm.table[l], nil
}

// LookupRune is Lookup for ASCII letters of either case. The result is uppercase.
func (pm *PairMap) LookupRune(r rune) (rune, error) {
	l, err := LetterOf(r)
	if err != nil {
		return 0, err
	}
	m, err := pm.Lookup(l)
	if err != nil {
		return 0, err
	}
	return m.Rune(), nil
}

// Pattern returns the normalized, uppercase pattern the map was built from.
func (pm *PairMap) Pattern() string {
	if pm == nil {
		return ""
	}
	return pm.pattern
}

func (pm *PairMap) String() string {
	return pm.Pattern()
}
