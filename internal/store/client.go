// Package store is the HTTP client for a content-addressed store node. Data
// is uploaded as a raw body and addressed by the content ID the node returns;
// downloads are plain GETs by content ID.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/logging"
)

const (
	headerFilename = "X-Filename"

	dataPath = "/api/v1/data"
	infoPath = "/api/v1/info"
)

// Metadata travels alongside downloaded bytes.
type Metadata struct {
	Filename string
	MimeType string
}

// NodeInfo is the store node's self-description.
type NodeInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Peers   int    `json:"peers"`
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

func NewClient(baseURL string, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
		log:     log,
	}
}

// Upload starts an asynchronous upload and returns its task handle. The
// caller observes progress on the task channel and collects the content ID
// once the task is done. Each task is independent; concurrent uploads do not
// share any state.
func (c *Client) Upload(ctx context.Context, data []byte, name, mimeType string) *UploadTask {
	t := newUploadTask(len(data))
	go func() {
		cid, err := c.doUpload(ctx, t, data, name, mimeType)
		t.finish(cid, err)
	}()
	return t
}

func (c *Client) doUpload(ctx context.Context, t *UploadTask, data []byte, name, mimeType string) (string, error) {
	body := &progressReader{r: bytes.NewReader(data), total: len(data), task: t}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+dataPath, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set(headerFilename, name)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: upload: store returned %s", common.ErrTransport, resp.Status)
	}

	var out struct {
		CID string `json:"cid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: upload response: %v", common.ErrTransport, err)
	}
	if out.CID == "" {
		return "", fmt.Errorf("%w: upload response missing cid", common.ErrTransport)
	}
	c.log.Debug(ctx, "upload complete", "name", name, "cid", out.CID)
	return out.CID, nil
}

// Download fetches the content for cid together with the name and type the
// uploader declared.
func (c *Client) Download(ctx context.Context, cid string) ([]byte, Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+dataPath+"/"+cid, nil)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: download %s: %v", common.ErrTransport, cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, Metadata{}, fmt.Errorf("%w: content %s", common.ErrNotFound, cid)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Metadata{}, fmt.Errorf("%w: download %s: store returned %s", common.ErrTransport, cid, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: download %s: %v", common.ErrTransport, cid, err)
	}

	md := Metadata{
		Filename: resp.Header.Get(headerFilename),
		MimeType: resp.Header.Get("Content-Type"),
	}
	return data, md, nil
}

// NodeInfo queries the node's health endpoint.
func (c *Client) NodeInfo(ctx context.Context) (NodeInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+infoPath, nil)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("%w: node info: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NodeInfo{}, fmt.Errorf("%w: node info: store returned %s", common.ErrTransport, resp.Status)
	}

	var info NodeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return NodeInfo{}, fmt.Errorf("%w: node info response: %v", common.ErrTransport, err)
	}
	return info, nil
}
