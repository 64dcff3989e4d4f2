package threshold

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/cryptox"
	"github.com/interestIngc/cyphershare/internal/policy"
)

// SimCohort is an in-process cohort used by tests and local development.
// It behaves like a real deployment observably: payloads are sealed under a
// key derived from ritual material, the compiled condition travels inside
// the envelope, and key release is refused with the threshold-not-met
// condition when the policy is unsatisfied or too few parties are up.
type SimCohort struct {
	mu           sync.Mutex
	ritualSecret []byte
	available    int
	threshold    int
	balances     map[string]int64
	nftOwners    map[string]map[string]bool

	// now is a seam for tests exercising time windows.
	now func() time.Time
}

// envelope is the ciphertext layout produced by the simulator.
type envelope struct {
	Condition  json.RawMessage `json:"condition"`
	Salt       []byte          `json:"salt"`
	Nonce      []byte          `json:"nonce"`
	Ciphertext []byte          `json:"ciphertext"`
}

// NewSimCohort creates a simulator with the given number of live parties out
// of a decryption threshold. A fresh random ritual secret is generated.
func NewSimCohort(available, threshold int) *SimCohort {
	return &SimCohort{
		ritualSecret: common.GenerateRandByteArray(32),
		available:    available,
		threshold:    threshold,
		balances:     make(map[string]int64),
		nftOwners:    make(map[string]map[string]bool),
		now:          time.Now,
	}
}

// SetBalance records an identity's balance for PositiveBalance evaluation.
func (s *SimCohort) SetBalance(identity string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[identity] = balance
}

// GrantNFT records that identity owns an asset from contract.
func (s *SimCohort) GrantNFT(contract, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nftOwners[contract] == nil {
		s.nftOwners[contract] = make(map[string]bool)
	}
	s.nftOwners[contract][identity] = true
}

// SetAvailable changes the number of live cohort parties.
func (s *SimCohort) SetAvailable(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = n
}

// SetNow overrides the simulator clock. Tests use it to step past a
// TimeWindow without sleeping.
func (s *SimCohort) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *SimCohort) Encrypt(ctx context.Context, plaintext, condition []byte, identity string) ([]byte, error) {
	if _, err := policy.Parse(condition); err != nil {
		return nil, err
	}

	salt := common.GenerateRandByteArray(16)
	key, err := s.deriveKey(salt, condition)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		Condition:  condition,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
}

func (s *SimCohort) Decrypt(ctx context.Context, ciphertext []byte, identity string) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(ciphertext, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", common.ErrEncryption, err)
	}

	cond, err := policy.Parse(env.Condition)
	if err != nil {
		return nil, err
	}

	if err := s.evaluate(cond, identity); err != nil {
		return nil, err
	}

	key, err := s.deriveKey(env.Salt, env.Condition)
	if err != nil {
		return nil, err
	}

	plaintext, err := cryptox.Open(env.Ciphertext, env.Nonce, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	return plaintext, nil
}

// evaluate decides whether enough parties would release key material for
// this identity under cond. All refusals look identical to the caller: the
// threshold was not met.
func (s *SimCohort) evaluate(cond policy.Condition, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available < s.threshold {
		return fmt.Errorf("%w: %d of %d parties responded", common.ErrThresholdNotMet, s.available, s.threshold)
	}

	switch v := cond.(type) {
	case policy.PositiveBalance:
		if s.balances[identity] <= 0 {
			return common.ErrThresholdNotMet
		}
	case policy.TimeWindow:
		deadline := v.IssuedAt.Add(time.Duration(v.WindowSeconds) * time.Second)
		if s.now().After(deadline) {
			return common.ErrThresholdNotMet
		}
	case policy.NFTOwnership:
		if !s.nftOwners[v.ContractAddress][identity] {
			return common.ErrThresholdNotMet
		}
	default:
		return fmt.Errorf("%w: unsupported condition %T", common.ErrValidation, cond)
	}

	return nil
}

// deriveKey binds the payload key to both the ritual secret and the exact
// compiled condition, so tampering with the condition in the envelope yields
// a different key.
func (s *SimCohort) deriveKey(salt, condition []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, s.ritualSecret, salt, condition)
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("%w: key derivation: %v", common.ErrEncryption, err)
	}
	return key, nil
}
