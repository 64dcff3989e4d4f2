// Package models defines the records a participant keeps about shared and
// received files.
package models

import (
	"errors"
	"math"
	"time"
)

// Direction says which side of the exchange produced a record.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

var ErrMissingAccessCondition = errors.New("encrypted record without access condition description")

// FileRecord tracks one file for the lifetime of an upload or receipt.
//
// ContentID is empty while an upload is in flight and immutable once set; a
// record either completes its transition to uploaded or is discarded on
// failure — it never regresses.
type FileRecord struct {
	ID        string
	Name      string
	Size      int64 // bytes
	MimeType  string
	CreatedAt time.Time
	Direction Direction

	ContentID string

	Encrypted                  bool
	AccessConditionDescription string

	// ComputationCommitment is set only for scripts that have been executed.
	ComputationCommitment string
}

// Uploaded reports whether the record has been assigned its content ID.
func (r *FileRecord) Uploaded() bool {
	return r.ContentID != ""
}

// SizeMB is the announcement-wire form of the size: megabytes rounded to two
// decimals.
func (r *FileRecord) SizeMB() float64 {
	return math.Round(float64(r.Size)/(1024*1024)*100) / 100
}

// Validate checks the record invariant: encrypted records always carry a
// human-readable access condition description, plaintext records never do.
func (r *FileRecord) Validate() error {
	if r.Encrypted && r.AccessConditionDescription == "" {
		return ErrMissingAccessCondition
	}
	if !r.Encrypted && r.AccessConditionDescription != "" {
		return errors.New("plaintext record with access condition description")
	}
	return nil
}

// UploadSession is the transient bookkeeping for one in-flight upload. It is
// keyed by a client-generated ID distinct from the resulting FileRecord ID
// and is removed on completion — folded into a FileRecord on success,
// discarded on failure.
type UploadSession struct {
	ID        string
	Name      string
	Size      int64
	MimeType  string
	Progress  int // 0..100
	StartedAt time.Time
}

// ComputationCommitment binds a script run to a secret generated at
// computation time.
type ComputationCommitment struct {
	ScriptDigest string // 0x-prefixed hex sha256 of the script
	Secret       string // 16 random bytes, hex
}

// Commitment returns the public commitment string. Note this is the plain
// concatenation of the digest and the secret, not a hash of the two; the
// format is fixed by the deployed verifier.
func (c ComputationCommitment) Commitment() string {
	return c.ScriptDigest + c.Secret
}

// EmailProofSubmission is the ephemeral payload of one proof submission
// attempt. The payout identity is recovered by the verifier from the email
// subject, not carried here.
type EmailProofSubmission struct {
	EMLRawContent string
	ScriptContent string
	Secret        string
}
