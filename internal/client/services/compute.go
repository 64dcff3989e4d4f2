package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/interestIngc/cyphershare/internal/client/repositories/records"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/proof"
	"github.com/interestIngc/cyphershare/internal/runner"
	"github.com/interestIngc/cyphershare/internal/store"
	"github.com/interestIngc/cyphershare/internal/threshold"
)

// RunOutcome is what one computation run yields for the caller.
type RunOutcome struct {
	Result     runner.Result
	Commitment string
}

type ComputeService interface {
	// Run downloads the script by content ID, executes it against local
	// input files and opens a proof cycle for a clean run.
	Run(ctx context.Context, scriptCID string, inputPaths []string) (RunOutcome, error)

	// Instructions returns the attestation email the user must send and
	// moves the proof flow to awaiting-attestation.
	Instructions() (subject, body string, err error)

	// Prove submits the raw attestation email at emlPath and returns the
	// claim transaction hash.
	Prove(ctx context.Context, emlPath string) (string, error)

	// ProofState reports where the current proof cycle stands.
	ProofState() proof.State
}

// scriptRunner is the slice of runner.Runner the service needs.
type scriptRunner interface {
	Init(ctx context.Context, engineWASM []byte) error
	Run(ctx context.Context, script []byte, inputs []runner.Input) (runner.Result, error)
}

type computeService struct {
	store       *store.Client
	repo        records.Repository
	runner      scriptRunner
	coordinator *proof.Coordinator
	threshold   *threshold.Client
	wallet      func() identity.Wallet
	enginePath  string
	log         logging.Logger

	initOnce sync.Once
	initErr  error
}

func NewComputeService(
	st *store.Client,
	repo records.Repository,
	rn scriptRunner,
	coordinator *proof.Coordinator,
	th *threshold.Client,
	wallet func() identity.Wallet,
	enginePath string,
	log logging.Logger,
) ComputeService {
	return &computeService{
		store:       st,
		repo:        repo,
		runner:      rn,
		coordinator: coordinator,
		threshold:   th,
		wallet:      wallet,
		enginePath:  enginePath,
		log:         log,
	}
}

// ensureEngine loads the engine binary on first use.
func (s *computeService) ensureEngine(ctx context.Context) error {
	s.initOnce.Do(func() {
		wasm, err := os.ReadFile(s.enginePath)
		if err != nil {
			s.initErr = fmt.Errorf("%w: engine binary %s: %v", common.ErrNotReady, s.enginePath, err)
			return
		}
		s.initErr = s.runner.Init(ctx, wasm)
	})
	return s.initErr
}

func (s *computeService) Run(ctx context.Context, scriptCID string, inputPaths []string) (RunOutcome, error) {
	if err := s.ensureEngine(ctx); err != nil {
		return RunOutcome{}, err
	}

	script, err := s.resolveScript(ctx, scriptCID)
	if err != nil {
		return RunOutcome{}, err
	}

	inputs := make([]runner.Input, 0, len(inputPaths))
	for _, path := range inputPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return RunOutcome{}, fmt.Errorf("%w: input %s: %v", common.ErrValidation, path, err)
		}
		inputs = append(inputs, runner.Input{Name: filepath.Base(path), Data: data})
	}

	res, err := s.runner.Run(ctx, script, inputs)
	if err != nil {
		return RunOutcome{}, err
	}
	if res.ScriptErr != nil {
		// A faulted run produces no commitment and voids any previous cycle.
		s.coordinator.Reset()
		return RunOutcome{Result: res}, nil
	}

	commitment := s.coordinator.BeginRun(ctx, script)
	if rec, err := s.repo.GetByContentID(ctx, scriptCID); err == nil {
		if err := s.repo.SetCommitment(ctx, rec.ID, commitment); err != nil {
			s.log.Warn(ctx, "failed to store commitment", "record", rec.ID, "error", err)
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return RunOutcome{}, err
	}

	return RunOutcome{Result: res, Commitment: commitment}, nil
}

// resolveScript fetches the script content, decrypting it when the local
// record says it was shared encrypted.
func (s *computeService) resolveScript(ctx context.Context, scriptCID string) ([]byte, error) {
	data, _, err := s.store.Download(ctx, scriptCID)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByContentID(ctx, scriptCID)
	if errors.Is(err, common.ErrNotFound) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if !rec.Encrypted {
		return data, nil
	}
	return s.threshold.DecryptContent(ctx, scriptCID, data, s.wallet())
}

func (s *computeService) Instructions() (string, string, error) {
	subject, body, err := s.coordinator.Instructions()
	if err != nil {
		return "", "", err
	}
	if err := s.coordinator.MarkAwaiting(); err != nil && s.coordinator.State() != proof.StateAwaitingAttestation {
		return "", "", err
	}
	return subject, body, nil
}

func (s *computeService) Prove(ctx context.Context, emlPath string) (string, error) {
	if !s.wallet().Connected() {
		return "", fmt.Errorf("%w: connect a wallet before claiming", common.ErrProof)
	}
	eml, err := os.ReadFile(emlPath)
	if err != nil {
		return "", fmt.Errorf("%w: attestation email %s: %v", common.ErrValidation, emlPath, err)
	}
	return s.coordinator.Submit(ctx, string(eml))
}

func (s *computeService) ProofState() proof.State {
	return s.coordinator.State()
}
