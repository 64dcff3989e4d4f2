// Package policy translates the closed set of human-meaningful access
// policies into the opaque compiled conditions the encryption layer binds
// ciphertexts to.
package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
)

// Condition is the closed set of supported access policies. It is a sealed
// union: only the three variants below implement it, and Compile matches
// exhaustively, so an unknown variant is a programming error, not a runtime
// string mismatch.
type Condition interface {
	kind() string
}

// PositiveBalance gates decryption on the identity holding a positive
// balance.
type PositiveBalance struct{}

// TimeWindow gates decryption on the current time being within
// WindowSeconds of IssuedAt.
type TimeWindow struct {
	WindowSeconds int64
	IssuedAt      time.Time
}

// NFTOwnership gates decryption on the identity owning an asset from the
// given contract.
type NFTOwnership struct {
	ContractAddress string
}

func (PositiveBalance) kind() string { return "positiveBalance" }
func (TimeWindow) kind() string      { return "timeWindow" }
func (NFTOwnership) kind() string    { return "nftOwnership" }

// Handle is a compiled condition: the opaque form the cohort evaluates plus
// a human-readable summary carried in announcements.
type Handle struct {
	compiled    []byte
	description string
}

func (h Handle) Bytes() []byte       { return h.compiled }
func (h Handle) Description() string { return h.description }

// wireCondition is the serialized shape of a compiled condition.
type wireCondition struct {
	Kind            string `json:"kind"`
	WindowSeconds   int64  `json:"windowSeconds,omitempty"`
	IssuedAtMs      int64  `json:"issuedAt,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
}

// Compile validates a condition and produces its opaque compiled form.
// It is pure: the only failure mode is malformed input, reported as
// common.ErrValidation before anything touches the network.
func Compile(c Condition) (Handle, error) {
	var w wireCondition
	var description string

	switch v := c.(type) {
	case PositiveBalance:
		w = wireCondition{Kind: v.kind()}
		description = "The account needs to have a positive balance, to be able to decrypt this file"

	case TimeWindow:
		if v.WindowSeconds <= 0 {
			return Handle{}, fmt.Errorf("%w: time window must be positive, got %d", common.ErrValidation, v.WindowSeconds)
		}
		issuedAt := v.IssuedAt
		if issuedAt.IsZero() {
			issuedAt = time.Now()
		}
		w = wireCondition{Kind: v.kind(), WindowSeconds: v.WindowSeconds, IssuedAtMs: issuedAt.UnixMilli()}
		description = fmt.Sprintf("Accessible only within %d seconds of %s",
			v.WindowSeconds, issuedAt.Format(time.RFC1123))

	case NFTOwnership:
		if !identity.IsHexAddress(v.ContractAddress) {
			return Handle{}, fmt.Errorf("%w: invalid contract address %q", common.ErrValidation, v.ContractAddress)
		}
		w = wireCondition{Kind: v.kind(), ContractAddress: v.ContractAddress}
		description = fmt.Sprintf("Requires ownership of an NFT from contract %s...%s on Polygon Amoy",
			v.ContractAddress[:6], v.ContractAddress[len(v.ContractAddress)-4:])

	default:
		return Handle{}, fmt.Errorf("%w: unsupported condition type %T", common.ErrValidation, c)
	}

	b, err := json.Marshal(w)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	return Handle{compiled: b, description: description}, nil
}

// Parse decodes a compiled condition back into its variant. It is the
// cohort-side counterpart of Compile; unknown kinds are rejected.
func Parse(compiled []byte) (Condition, error) {
	var w wireCondition
	if err := json.Unmarshal(compiled, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	switch w.Kind {
	case "positiveBalance":
		return PositiveBalance{}, nil
	case "timeWindow":
		return TimeWindow{WindowSeconds: w.WindowSeconds, IssuedAt: time.UnixMilli(w.IssuedAtMs)}, nil
	case "nftOwnership":
		return NFTOwnership{ContractAddress: w.ContractAddress}, nil
	default:
		return nil, fmt.Errorf("%w: unknown condition kind %q", common.ErrValidation, w.Kind)
	}
}
