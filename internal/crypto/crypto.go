// Package crypto seals crack reports so recovered plaintext is not left
// readable on disk or in terminal scrollback.
package crypto

import "errors"

var ErrNoIdentity = errors.New("no identity to decrypt with")

type Machine interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}
