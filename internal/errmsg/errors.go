package errmsg

import (
	"errors"
	"fmt"
)

var ErrSettingOutOfRange = errors.New("rotor setting out of range")
var ErrInvalidPattern = errors.New("invalid pair pattern")
var ErrInvalidSymbol = errors.New("invalid symbol")
var ErrLetterNotMapped = errors.New("letter not mapped")

// ErrEngineFault wraps lookup failures that happen after normalization.
// Normalized input only contains A-Z, so seeing this means the machine is broken.
var ErrEngineFault = errors.New("cipher engine fault")

var ErrMachineMismatch = errors.New("machine tables do not match")

// RangeError reports a rotor setting outside [0,25]. Rotor is 1-based.
type RangeError struct {
	Rotor int
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("improper setting %d for rotor %d (must be between 0 and 25)", e.Value, e.Rotor)
}

func (e *RangeError) Unwrap() error {
	return ErrSettingOutOfRange
}

// FormatError reports a malformed pair pattern.
type FormatError struct {
	Pattern string
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid pair pattern %q: %s", e.Pattern, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidPattern
}

// SymbolError reports a non-letter handed to a substitution lookup.
type SymbolError struct {
	Symbol rune
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%q is not a letter", e.Symbol)
}

func (e *SymbolError) Unwrap() error {
	return ErrInvalidSymbol
}
