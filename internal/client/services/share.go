// Package services implements the application workflows behind the CLI
// commands: sharing and fetching files, running computations and driving the
// proof flow.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interestIngc/cyphershare/internal/bus"
	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/client/repositories/records"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/filex"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/policy"
	"github.com/interestIngc/cyphershare/internal/store"
	"github.com/interestIngc/cyphershare/internal/threshold"
)

type ShareService interface {
	// Start seeds the dedup sets from local history and launches the
	// announcement consumer. It returns immediately.
	Start(ctx context.Context) error

	// ConnectWallet attaches a wallet address to the session.
	ConnectWallet(ctx context.Context, address string) error
	Wallet() identity.Wallet

	// Share uploads the file at path, optionally encrypted under cond, and
	// announces it to the room. It blocks until the upload settles.
	Share(ctx context.Context, path string, cond policy.Condition) (*models.FileRecord, error)

	// List returns the exchange history, newest first.
	List(ctx context.Context) ([]*models.FileRecord, error)

	// Fetch downloads content by ID, decrypts it if required and writes it
	// into the downloads directory. It returns the saved path.
	Fetch(ctx context.Context, cid string) (string, error)

	// Sessions is a snapshot of in-flight uploads.
	Sessions() []models.UploadSession

	// NodeInfo reports the store node health.
	NodeInfo(ctx context.Context) (store.NodeInfo, error)
}

type shareService struct {
	store     *store.Client
	bus       *bus.Bus
	tracker   *bus.Tracker
	repo      records.Repository
	threshold *threshold.Client
	dataDir   string
	log       logging.Logger

	mu       sync.Mutex
	wallet   identity.Wallet
	sessions map[string]*models.UploadSession
}

func NewShareService(
	st *store.Client,
	b *bus.Bus,
	tracker *bus.Tracker,
	repo records.Repository,
	th *threshold.Client,
	dataDir string,
	log logging.Logger,
) ShareService {
	return &shareService{
		store:     st,
		bus:       b,
		tracker:   tracker,
		repo:      repo,
		threshold: th,
		dataDir:   dataDir,
		log:       log,
		sessions:  make(map[string]*models.UploadSession),
	}
}

func (s *shareService) Start(ctx context.Context) error {
	sent, err := s.repo.ListContentIDs(ctx, models.DirectionSent)
	if err != nil {
		return fmt.Errorf("seeding sent set: %w", err)
	}
	for _, cid := range sent {
		s.tracker.MarkSent(cid)
	}

	received, err := s.repo.ListContentIDs(ctx, models.DirectionReceived)
	if err != nil {
		return fmt.Errorf("seeding received set: %w", err)
	}
	s.tracker.SeedReceived(received...)

	go func() {
		if err := s.bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error(ctx, "announcement loop stopped", "error", err)
		}
	}()
	go s.consume(ctx)
	return nil
}

// consume persists every accepted announcement as a received record.
func (s *shareService) consume(ctx context.Context) {
	for rec := range s.bus.Events() {
		rec := rec
		if err := s.repo.Save(ctx, &rec); err != nil {
			s.log.Error(ctx, "failed to persist received record", "cid", rec.ContentID, "error", err)
			continue
		}
		s.log.Info(ctx, "file received", "name", rec.Name, "cid", rec.ContentID, "encrypted", rec.Encrypted)
	}
}

func (s *shareService) ConnectWallet(ctx context.Context, address string) error {
	if !identity.IsHexAddress(address) {
		return fmt.Errorf("%w: %q is not a wallet address", common.ErrValidation, address)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = identity.Wallet{Address: address}
	s.log.Info(ctx, "wallet connected", "address", address)
	return nil
}

func (s *shareService) Wallet() identity.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet
}

func (s *shareService) Share(ctx context.Context, path string, cond policy.Condition) (*models.FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrValidation, path, err)
	}
	name := filepath.Base(path)
	mimeType := filex.MimeTypeOf(name)

	encrypted := false
	description := ""
	if cond != nil {
		handle, err := policy.Compile(cond)
		if err != nil {
			return nil, err
		}
		ciphertext, err := s.threshold.Encrypt(ctx, data, handle, s.Wallet())
		if err != nil {
			return nil, err
		}
		data = ciphertext
		encrypted = true
		description = handle.Description()
	}

	session := s.beginSession(name, int64(len(data)), mimeType)
	defer s.endSession(session.ID)

	task := s.store.Upload(ctx, data, name, mimeType)
	for pct := range task.Progress() {
		s.setProgress(session.ID, pct)
	}
	<-task.Done()
	cid, err := task.Result()
	if err != nil {
		// Nothing is persisted for a failed upload.
		return nil, err
	}

	rec := &models.FileRecord{
		ID:                         uuid.NewString(),
		Name:                       name,
		Size:                       int64(len(data)),
		MimeType:                   mimeType,
		CreatedAt:                  time.Now(),
		Direction:                  models.DirectionSent,
		ContentID:                  cid,
		Encrypted:                  encrypted,
		AccessConditionDescription: description,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}
	if err := s.bus.Publish(ctx, rec); err != nil {
		// The upload stands; only the announcement failed.
		return rec, err
	}
	return rec, nil
}

func (s *shareService) List(ctx context.Context) ([]*models.FileRecord, error) {
	return s.repo.List(ctx)
}

func (s *shareService) Fetch(ctx context.Context, cid string) (string, error) {
	data, md, err := s.store.Download(ctx, cid)
	if err != nil {
		return "", err
	}

	name := md.Filename
	encrypted := false
	if rec, err := s.repo.GetByContentID(ctx, cid); err == nil {
		encrypted = rec.Encrypted
		if name == "" {
			name = rec.Name
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}
	if name == "" {
		name = cid
	}

	if encrypted {
		plaintext, err := s.threshold.DecryptContent(ctx, cid, data, s.Wallet())
		if err != nil {
			return "", err
		}
		data = plaintext
	}

	dir, err := filex.EnsureDir(filepath.Join(s.dataDir, "downloads"))
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	s.log.Info(ctx, "file fetched", "cid", cid, "path", dest)
	return dest, nil
}

func (s *shareService) NodeInfo(ctx context.Context) (store.NodeInfo, error) {
	return s.store.NodeInfo(ctx)
}

func (s *shareService) beginSession(name string, size int64, mimeType string) *models.UploadSession {
	session := &models.UploadSession{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      size,
		MimeType:  mimeType,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

func (s *shareService) setProgress(id string, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.Progress = pct
	}
}

func (s *shareService) endSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *shareService) Sessions() []models.UploadSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.UploadSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, *session)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.Before(result[j].StartedAt) })
	return result
}
