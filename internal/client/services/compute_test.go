package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/client/repositories/records"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/proof"
	"github.com/interestIngc/cyphershare/internal/runner"
	"github.com/interestIngc/cyphershare/internal/store"
	"github.com/interestIngc/cyphershare/internal/threshold"

	_ "modernc.org/sqlite"
)

type fakeRunner struct {
	res       runner.Result
	gotScript []byte
	gotInputs []runner.Input
}

func (f *fakeRunner) Init(ctx context.Context, engineWASM []byte) error { return nil }

func (f *fakeRunner) Run(ctx context.Context, script []byte, inputs []runner.Input) (runner.Result, error) {
	f.gotScript = script
	f.gotInputs = inputs
	return f.res, nil
}

type fakeVerifier struct {
	txHash string
	err    error
}

func (f *fakeVerifier) Submit(ctx context.Context, sub models.EmailProofSubmission) (string, error) {
	return f.txHash, f.err
}

type computeFixture struct {
	svc    ComputeService
	repo   records.Repository
	runner *fakeRunner
	store  *store.Client
	wallet identity.Wallet
}

func newComputeFixture(t *testing.T, storeURL string, verifier proof.Submitter) *computeFixture {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, records.Bootstrap(context.Background(), db))
	repo := records.NewSQLiteRepository(db)

	log := logging.NewDefault()
	fr := &fakeRunner{}
	enginePath := writeFile(t, "engine.wasm", "\x00asm")

	f := &computeFixture{repo: repo, runner: fr, store: store.NewClient(storeURL, log)}
	f.wallet = identity.Wallet{Address: walletA}
	f.svc = NewComputeService(
		store.NewClient(storeURL, log),
		repo, fr,
		proof.NewCoordinator(verifier, log),
		threshold.NewClient(threshold.NewSimCohort(3, 2)),
		func() identity.Wallet { return f.wallet },
		enginePath, log,
	)
	return f
}

func uploadScript(t *testing.T, c *store.Client, script string) string {
	t.Helper()
	task := c.Upload(context.Background(), []byte(script), "analyze.py", "text/x-python")
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
	}
	cid, err := task.Result()
	require.NoError(t, err)
	return cid
}

func TestRunMissingEngine(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{})
	// Point at a file that does not exist.
	f.svc.(*computeService).enginePath = filepath.Join(t.TempDir(), "missing.wasm")

	_, err := f.svc.Run(context.Background(), "bafy-any", nil)
	require.ErrorIs(t, err, common.ErrNotReady)
}

func TestRunOpensProofCycle(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{})
	ctx := context.Background()

	cid := uploadScript(t, f.store, "print(len(rows))")
	require.NoError(t, f.repo.Save(ctx, &models.FileRecord{
		ID: "r1", Name: "analyze.py", MimeType: "text/x-python",
		CreatedAt: time.Now(), Direction: models.DirectionReceived, ContentID: cid,
	}))

	f.runner.res = runner.Result{Stdout: "3\n", OutputArtifact: []byte("3")}
	input := writeFile(t, "rows.csv", "a\nb\nc\n")

	out, err := f.svc.Run(ctx, cid, []string{input})
	require.NoError(t, err)
	require.Equal(t, "3\n", out.Result.Stdout)
	require.Regexp(t, regexp.MustCompile(`^0x[0-9a-f]{96}$`), out.Commitment)
	require.Equal(t, proof.StateRunComplete, f.svc.ProofState())

	require.Equal(t, []byte("print(len(rows))"), f.runner.gotScript)
	require.Len(t, f.runner.gotInputs, 1)
	require.Equal(t, "rows.csv", f.runner.gotInputs[0].Name)

	rec, err := f.repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, out.Commitment, rec.ComputationCommitment)
}

func TestRunScriptFaultYieldsNoCommitment(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{})

	cid := uploadScript(t, f.store, "raise ValueError")
	f.runner.res = runner.Result{Stderr: "ValueError", ScriptErr: errors.New("exit status 1")}

	out, err := f.svc.Run(context.Background(), cid, nil)
	require.NoError(t, err)
	require.Error(t, out.Result.ScriptErr)
	require.Empty(t, out.Commitment)
	require.Equal(t, proof.StateIdle, f.svc.ProofState())
}

func TestRunScriptFaultVoidsPreviousCycle(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{})
	ctx := context.Background()

	cid := uploadScript(t, f.store, "print('ok')")
	out, err := f.svc.Run(ctx, cid, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out.Commitment)

	f.runner.res = runner.Result{Stderr: "ValueError", ScriptErr: errors.New("exit status 1")}
	_, err = f.svc.Run(ctx, cid, nil)
	require.NoError(t, err)

	// The earlier cycle's secret is gone with it.
	require.Equal(t, proof.StateIdle, f.svc.ProofState())
	_, _, err = f.svc.Instructions()
	require.ErrorIs(t, err, common.ErrProof)
}

func TestProveRequiresWallet(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{txHash: "0xfeed"})
	ctx := context.Background()

	cid := uploadScript(t, f.store, "print('ok')")
	_, err := f.svc.Run(ctx, cid, nil)
	require.NoError(t, err)
	_, _, err = f.svc.Instructions()
	require.NoError(t, err)

	f.wallet = identity.Wallet{}
	eml := writeFile(t, "attestation.eml", "Subject: claim\r\n\r\nbody")
	_, err = f.svc.Prove(ctx, eml)
	require.ErrorIs(t, err, common.ErrProof)

	// Connecting the wallet lets the same submission through.
	f.wallet = identity.Wallet{Address: walletA}
	txHash, err := f.svc.Prove(ctx, eml)
	require.NoError(t, err)
	require.Equal(t, "0xfeed", txHash)
}

func TestProofFlowEndToEnd(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{txHash: "0xfeed"})
	ctx := context.Background()

	cid := uploadScript(t, f.store, "print('ok')")
	out, err := f.svc.Run(ctx, cid, nil)
	require.NoError(t, err)

	subject, body, err := f.svc.Instructions()
	require.NoError(t, err)
	require.Equal(t, proof.AttestationSubject, subject)
	require.Contains(t, body, out.Commitment)
	require.Equal(t, proof.StateAwaitingAttestation, f.svc.ProofState())

	eml := writeFile(t, "attestation.eml", "Subject: "+subject+"\r\n\r\n"+body)
	txHash, err := f.svc.Prove(ctx, eml)
	require.NoError(t, err)
	require.Equal(t, "0xfeed", txHash)
	require.Equal(t, proof.StateAccepted, f.svc.ProofState())
}

func TestProveRejectionEndsCycle(t *testing.T) {
	srv := stubStoreNode(t)
	f := newComputeFixture(t, srv.URL, &fakeVerifier{err: errors.New("commitment mismatch")})
	ctx := context.Background()

	cid := uploadScript(t, f.store, "print('ok')")
	_, err := f.svc.Run(ctx, cid, nil)
	require.NoError(t, err)
	_, _, err = f.svc.Instructions()
	require.NoError(t, err)

	eml := writeFile(t, "attestation.eml", "whatever")
	_, err = f.svc.Prove(ctx, eml)
	require.Error(t, err)
	require.Equal(t, proof.StateRejected, f.svc.ProofState())
}
