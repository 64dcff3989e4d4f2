// Package storenode implements the content-addressed store node: an HTTP
// service that accepts raw uploads, addresses them by content digest and
// serves them back to any peer that learned the ID.
package storenode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/storenode/blob"
	"github.com/interestIngc/cyphershare/internal/storenode/manifest"
)

const Version = "0.3.1"

const headerFilename = "X-Filename"

// ContentID derives the address of a piece of content from its bytes.
func ContentID(data []byte) string {
	return fmt.Sprintf("bafy%x", sha256.Sum256(data))
}

type Server struct {
	nodeID   string
	backend  blob.Backend
	manifest manifest.Repository
	maxBytes int64
	started  time.Time
	log      logging.Logger
}

func NewServer(nodeID string, backend blob.Backend, repo manifest.Repository, maxBytes int64, log logging.Logger) *Server {
	return &Server{
		nodeID:   nodeID,
		backend:  backend,
		manifest: repo,
		maxBytes: maxBytes,
		started:  time.Now(),
		log:      log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/data", s.handleUpload)
		r.Get("/data/{cid}", s.handleDownload)
		r.Get("/manifest", s.handleManifest)
		r.Get("/info", s.handleInfo)
	})
	return r
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.maxBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		http.Error(w, "content too large", http.StatusRequestEntityTooLarge)
		return
	}

	cid := ContentID(data)
	ctx := r.Context()

	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	if err := s.backend.Put(ctx, cid, data); err != nil {
		s.log.Error(ctx, "blob write failed", "cid", cid, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	err = s.manifest.Create(ctx, &manifest.Entry{
		CID:       cid,
		Name:      r.Header.Get(headerFilename),
		MimeType:  mimeType,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.log.Error(ctx, "manifest write failed", "cid", cid, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	s.log.Info(ctx, "content stored", "cid", cid, "size", len(data))
	writeJSON(w, http.StatusCreated, map[string]string{"cid": cid})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	ctx := r.Context()

	entry, err := s.manifest.GetByCID(ctx, cid)
	if errors.Is(err, common.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error(ctx, "manifest read failed", "cid", cid, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	data, err := s.backend.Get(ctx, cid)
	if errors.Is(err, common.ErrNotFound) {
		// Manifest said yes, backend said no: the blob store lost data.
		s.log.Error(ctx, "blob missing for manifest entry", "cid", cid)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error(ctx, "blob read failed", "cid", cid, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", entry.MimeType)
	w.Header().Set(headerFilename, entry.Name)
	_, _ = w.Write(data)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	entries, err := s.manifest.List(r.Context())
	if err != nil {
		s.log.Error(r.Context(), "manifest list failed", "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*manifest.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type infoResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Peers   int    `json:"peers"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	peers := 0
	// Peers carries the manifest entry count; a standalone node has no
	// gossip view.
	if count, err := s.manifest.Count(r.Context()); err != nil {
		status = "degraded"
	} else {
		peers = int(count)
	}

	writeJSON(w, http.StatusOK, infoResponse{
		ID:      s.nodeID,
		Version: Version,
		Status:  status,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Peers:   peers,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info(ctx, "store node listening", "addr", addr, "node", s.nodeID)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
