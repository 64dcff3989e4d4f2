package threshold

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/policy"
)

// Client is the encryption layer the rest of the application talks to.
// It needs a connected wallet for both directions, never produces partial
// output, and guards against two concurrent decrypts of the same content ID.
type Client struct {
	cohort CohortAPI

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewClient(cohort CohortAPI) *Client {
	return &Client{
		cohort:   cohort,
		inFlight: make(map[string]bool),
	}
}

// Encrypt seals plaintext under the compiled condition on behalf of ident.
func (c *Client) Encrypt(ctx context.Context, plaintext []byte, h policy.Handle, ident identity.Wallet) ([]byte, error) {
	if !ident.Connected() {
		return nil, fmt.Errorf("%w: wallet not connected", common.ErrEncryption)
	}

	out, err := c.cohort.Encrypt(ctx, plaintext, h.Bytes(), ident.Address)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	return out, nil
}

// Decrypt recovers plaintext from a ciphertext produced by Encrypt.
// An unsatisfied policy or an under-responding cohort surfaces as
// common.ErrThresholdNotMet; callers present that as denial, not failure.
func (c *Client) Decrypt(ctx context.Context, ciphertext []byte, ident identity.Wallet) ([]byte, error) {
	if !ident.Connected() {
		return nil, fmt.Errorf("%w: wallet not connected", common.ErrEncryption)
	}

	out, err := c.cohort.Decrypt(ctx, ciphertext, ident.Address)
	if err != nil {
		if errors.Is(err, common.ErrThresholdNotMet) || errors.Is(err, common.ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	return out, nil
}

// DecryptContent is Decrypt keyed by content ID. While a decrypt for a given
// CID is outstanding, further requests for the same CID are rejected with
// common.ErrDecryptInProgress rather than queued. Retrying after completion
// is always safe.
func (c *Client) DecryptContent(ctx context.Context, cid string, ciphertext []byte, ident identity.Wallet) ([]byte, error) {
	c.mu.Lock()
	if c.inFlight[cid] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", common.ErrDecryptInProgress, cid)
	}
	c.inFlight[cid] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, cid)
		c.mu.Unlock()
	}()

	return c.Decrypt(ctx, ciphertext, ident)
}
