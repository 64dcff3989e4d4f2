// Package proof drives the commit-reveal flow that lets a worker claim a
// reward for a computation run. At run time the coordinator commits to the
// script and a fresh secret; the user later attests by email, and the raw
// message is submitted to the verifier together with the reveal material.
package proof

import (
	"context"
	"fmt"
	"sync"

	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/cryptox"
	"github.com/interestIngc/cyphershare/internal/logging"
)

// State of the proof flow. The flow is linear; Accepted and Rejected are
// terminal for the current cycle and a new run starts the next one.
type State int

const (
	StateIdle State = iota
	StateRunComplete
	StateAwaitingAttestation
	StateSubmitted
	StateAccepted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunComplete:
		return "run-complete"
	case StateAwaitingAttestation:
		return "awaiting-attestation"
	case StateSubmitted:
		return "submitted"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// AttestationSubject must appear verbatim in the attestation email; the
// verifier keys on it.
const AttestationSubject = "Claim reward for running the computation on my private data"

// AttestationBody is the instruction shown to the user after a run. The
// commitment in the body is what ties the email to this particular run.
func AttestationBody(commitment string) string {
	return fmt.Sprintf(
		"Send this email from your own mailbox without changing the subject line. Keep the line below in the body:\n\nCommitment: %s\n",
		commitment)
}

const secretBytes = 16

// Submitter delivers one reveal payload to the verifier and returns the
// transaction hash of the accepted claim.
type Submitter interface {
	Submit(ctx context.Context, sub models.EmailProofSubmission) (txHash string, err error)
}

// Coordinator holds the secret material of the current proof cycle. The
// secret never leaves the process except inside a Submit payload.
type Coordinator struct {
	mu         sync.Mutex
	state      State
	commitment models.ComputationCommitment
	script     []byte
	txHash     string
	submitter  Submitter
	log        logging.Logger
}

func NewCoordinator(submitter Submitter, log logging.Logger) *Coordinator {
	return &Coordinator{submitter: submitter, log: log}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TxHash is the verifier's transaction hash, set once a cycle is accepted.
func (c *Coordinator) TxHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txHash
}

// BeginRun starts a new proof cycle for the script that just executed: a
// fresh secret is drawn and the commitment computed. Any previous cycle and
// its secret are discarded.
func (c *Coordinator) BeginRun(ctx context.Context, script []byte) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commitment = models.ComputationCommitment{
		ScriptDigest: cryptox.Sha256Hex(script),
		Secret:       common.MakeRandHexString(secretBytes),
	}
	c.script = append([]byte(nil), script...)
	c.txHash = ""
	c.state = StateRunComplete
	c.log.Info(ctx, "proof cycle started", "commitment", c.commitment.Commitment())
	return c.commitment.Commitment()
}

// Reset discards the current cycle and its secret.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.commitment = models.ComputationCommitment{}
	c.script = nil
	c.txHash = ""
}

// Instructions returns the email subject and body the user must send to
// attest the current run.
func (c *Coordinator) Instructions() (subject, body string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return "", "", fmt.Errorf("%w: no computation has been run", common.ErrProof)
	}
	return AttestationSubject, AttestationBody(c.commitment.Commitment()), nil
}

// MarkAwaiting records that the instructions were handed to the user.
func (c *Coordinator) MarkAwaiting() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunComplete {
		return fmt.Errorf("%w: cannot await attestation in state %s", common.ErrProof, c.state)
	}
	c.state = StateAwaitingAttestation
	return nil
}

// Submit reveals the current cycle to the verifier using the raw attestation
// email. The verdict is written exactly once; a rejected or failed
// submission ends the cycle and discards the secret, so a retry needs a new
// run.
func (c *Coordinator) Submit(ctx context.Context, emlMimeContent string) (string, error) {
	if emlMimeContent == "" {
		return "", fmt.Errorf("%w: attestation email is empty", common.ErrProof)
	}
	c.mu.Lock()
	if c.state != StateAwaitingAttestation {
		state := c.state
		c.mu.Unlock()
		return "", fmt.Errorf("%w: cannot submit in state %s", common.ErrProof, state)
	}
	c.state = StateSubmitted
	payload := models.EmailProofSubmission{
		EMLRawContent: emlMimeContent,
		ScriptContent: string(c.script),
		Secret:        c.commitment.Secret,
	}
	c.mu.Unlock()

	txHash, err := c.submitter.Submit(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitted {
		// A verdict was already recorded; the late result loses.
		return c.txHash, nil
	}
	if err != nil {
		c.state = StateRejected
		c.commitment = models.ComputationCommitment{}
		c.script = nil
		c.log.Warn(ctx, "proof submission failed", "error", err)
		return "", err
	}
	c.state = StateAccepted
	c.txHash = txHash
	// The cycle is settled; the secret has no further use.
	c.commitment = models.ComputationCommitment{}
	c.script = nil
	c.log.Info(ctx, "proof accepted", "txHash", txHash)
	return txHash, nil
}
