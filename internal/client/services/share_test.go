package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/interestIngc/cyphershare/internal/bus"
	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/client/repositories/records"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/policy"
	"github.com/interestIngc/cyphershare/internal/relay"
	"github.com/interestIngc/cyphershare/internal/store"
	"github.com/interestIngc/cyphershare/internal/threshold"

	_ "modernc.org/sqlite"
)

const walletA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const walletB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

// stubStoreNode is a minimal in-process store node.
func stubStoreNode(t *testing.T) *httptest.Server {
	t.Helper()

	type blob struct {
		data []byte
		name string
		mime string
	}
	var blobs sync.Map

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		cid := fmt.Sprintf("bafy%x", sha256.Sum256(data))
		blobs.Store(cid, blob{data: data, name: r.Header.Get("X-Filename"), mime: r.Header.Get("Content-Type")})
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"cid": cid})
	})
	mux.HandleFunc("GET /api/v1/data/{cid}", func(w http.ResponseWriter, r *http.Request) {
		v, ok := blobs.Load(r.PathValue("cid"))
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		b := v.(blob)
		w.Header().Set("Content-Type", b.mime)
		w.Header().Set("X-Filename", b.name)
		_, _ = w.Write(b.data)
	})
	mux.HandleFunc("GET /api/v1/info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(store.NodeInfo{ID: "node-1", Status: "ok", Peers: 3})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	svc ShareService
	sim *threshold.SimCohort
}

// newPeer wires a full client stack: store client, relay bus, sqlite repo and
// a threshold client, all sharing the given relay and store node.
func newPeer(t *testing.T, ctx context.Context, name string, mem *relay.InMemory, storeURL string, sim *threshold.SimCohort) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, records.Bootstrap(ctx, db))
	repo := records.NewSQLiteRepository(db)

	log := logging.NewDefault()
	session := identity.NewSession()
	tracker := bus.NewTracker(session.SenderID)
	b := bus.New(mem, "test-room", session, tracker, log)

	svc := NewShareService(
		store.NewClient(storeURL, log),
		b, tracker, repo,
		threshold.NewClient(sim),
		t.TempDir(), log,
	)
	require.NoError(t, svc.Start(ctx))
	time.Sleep(50 * time.Millisecond)
	return &fixture{svc: svc, sim: sim}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSharePlaintextAndFetchByPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := stubStoreNode(t)
	mem := relay.NewInMemory()
	sim := threshold.NewSimCohort(3, 2)

	alice := newPeer(t, ctx, "alice", mem, srv.URL, sim)
	bob := newPeer(t, ctx, "bob", mem, srv.URL, sim)

	path := writeFile(t, "notes.txt", "hello from alice")
	rec, err := alice.svc.Share(ctx, path, nil)
	require.NoError(t, err)
	require.True(t, rec.Uploaded())
	require.False(t, rec.Encrypted)

	// Bob's consumer persists the announcement.
	var bobRecs []*models.FileRecord
	require.Eventually(t, func() bool {
		bobRecs, err = bob.svc.List(ctx)
		require.NoError(t, err)
		return len(bobRecs) == 1
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, models.DirectionReceived, bobRecs[0].Direction)
	require.Equal(t, rec.ContentID, bobRecs[0].ContentID)

	// Alice's own history holds exactly her sent record.
	aliceRecs, err := alice.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, aliceRecs, 1)
	require.Equal(t, models.DirectionSent, aliceRecs[0].Direction)

	dest, err := bob.svc.Fetch(ctx, rec.ContentID)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "hello from alice", string(data))
}

func TestShareEncryptedRequiresWallet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := stubStoreNode(t)
	alice := newPeer(t, ctx, "alice", relay.NewInMemory(), srv.URL, threshold.NewSimCohort(3, 2))

	path := writeFile(t, "secret.txt", "classified")
	_, err := alice.svc.Share(ctx, path, policy.PositiveBalance{})
	require.ErrorIs(t, err, common.ErrEncryption)
}

func TestEncryptedRoundtripThroughPolicy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := stubStoreNode(t)
	mem := relay.NewInMemory()
	sim := threshold.NewSimCohort(3, 2)

	alice := newPeer(t, ctx, "alice", mem, srv.URL, sim)
	bob := newPeer(t, ctx, "bob", mem, srv.URL, sim)

	require.NoError(t, alice.svc.ConnectWallet(ctx, walletA))
	require.NoError(t, bob.svc.ConnectWallet(ctx, walletB))
	sim.SetBalance(walletA, 10)

	path := writeFile(t, "secret.txt", "classified payload")
	rec, err := alice.svc.Share(ctx, path, policy.PositiveBalance{})
	require.NoError(t, err)
	require.True(t, rec.Encrypted)
	require.Contains(t, rec.AccessConditionDescription, "positive balance")

	require.Eventually(t, func() bool {
		recs, err := bob.svc.List(ctx)
		require.NoError(t, err)
		return len(recs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Bob's balance is zero: the cohort refuses.
	_, err = bob.svc.Fetch(ctx, rec.ContentID)
	require.ErrorIs(t, err, common.ErrThresholdNotMet)

	// Funding the wallet makes the same fetch succeed.
	sim.SetBalance(walletB, 5)
	dest, err := bob.svc.Fetch(ctx, rec.ContentID)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "classified payload", string(data))
}

func TestShareUploadFailureLeavesNoRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := newPeer(t, ctx, "alice", relay.NewInMemory(), "http://127.0.0.1:1", threshold.NewSimCohort(3, 2))

	path := writeFile(t, "doomed.txt", "never arrives")
	_, err := alice.svc.Share(ctx, path, nil)
	require.ErrorIs(t, err, common.ErrTransport)

	recs, err := alice.svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Empty(t, alice.svc.Sessions())
}

func TestConnectWalletValidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := stubStoreNode(t)
	alice := newPeer(t, ctx, "alice", relay.NewInMemory(), srv.URL, threshold.NewSimCohort(3, 2))

	require.ErrorIs(t, alice.svc.ConnectWallet(ctx, "not-an-address"), common.ErrValidation)
	require.False(t, alice.svc.Wallet().Connected())

	require.NoError(t, alice.svc.ConnectWallet(ctx, walletA))
	require.True(t, alice.svc.Wallet().Connected())
}

func TestNodeInfo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := stubStoreNode(t)
	alice := newPeer(t, ctx, "alice", relay.NewInMemory(), srv.URL, threshold.NewSimCohort(3, 2))

	info, err := alice.svc.NodeInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", info.Status)
}
