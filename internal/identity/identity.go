// Package identity holds the two identities a participant carries: a
// session-scoped sender ID used for announcement dedup, and a wallet address
// used by the encryption layer and reward payouts.
package identity

import (
	"regexp"

	"github.com/google/uuid"
)

// Session identifies the originating participant for the lifetime of one
// session. It is explicitly not a security credential: its only job is to let
// the announcement bus recognize our own echoes.
type Session struct {
	SenderID string
}

// NewSession generates a fresh random sender ID.
func NewSession() Session {
	return Session{SenderID: uuid.NewString()}
}

// Wallet is the on-chain identity that access conditions are evaluated
// against and rewards are paid to.
type Wallet struct {
	Address string
}

// Connected reports whether a wallet address is present.
func (w Wallet) Connected() bool {
	return w.Address != ""
}

var hexAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsHexAddress reports whether s looks like a 20-byte 0x-prefixed hex
// address. Checksum casing is not verified.
func IsHexAddress(s string) bool {
	return hexAddressRe.MatchString(s)
}
