// Package common defines shared constants and sentinel errors used across
// CypherShare components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Transport errors (store or relay unreachable). Recoverable: the user
	// retries manually, nothing is retried automatically.
	ErrTransport = errors.New("transport error")

	// Validation errors (malformed policy input, bad contract address).
	// Rejected before any network call.
	ErrValidation = errors.New("validation error")

	// Encryption-layer errors.
	ErrEncryption      = errors.New("encryption error")
	ErrThresholdNotMet = errors.New("threshold of responses not met")

	// A decrypt request for a file whose decryption is already outstanding.
	// Such requests are rejected, never queued.
	ErrDecryptInProgress = errors.New("decryption already in progress")

	// Computation runner errors.
	ErrRunner   = errors.New("script execution error")
	ErrNotReady = errors.New("runner not ready")

	// Proof coordination errors (missing commitment material, rejected
	// submission, illegal state transition).
	ErrProof = errors.New("proof error")
)
