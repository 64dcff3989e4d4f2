// Package threshold wraps the external threshold-encryption cohort: it
// compiles nothing and verifies nothing itself, it only binds payloads to
// compiled access conditions and funnels the cohort's dominant failure mode
// (not enough parties answered) into a distinguishable error.
package threshold

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/interestIngc/cyphershare/internal/common"
)

// CohortAPI is the cohort at its interface boundary. Encrypt binds plaintext
// to a compiled condition on behalf of an identity; Decrypt recovers the
// plaintext if the cohort's threshold of parties agrees the identity
// satisfies the condition.
type CohortAPI interface {
	Encrypt(ctx context.Context, plaintext, condition []byte, identity string) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte, identity string) ([]byte, error)
}

// thresholdNotMetMarker is the substring cohort endpoints use to report that
// too few parties responded. Matching it is how the reference deployments
// distinguish denial from infrastructure failure.
const thresholdNotMetMarker = "Threshold of responses not met"

// HTTPCohort talks to a cohort coordinator over its REST API.
type HTTPCohort struct {
	baseURL string
	httpc   *http.Client
}

func NewHTTPCohort(baseURL string) *HTTPCohort {
	return &HTTPCohort{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

func (c *HTTPCohort) Encrypt(ctx context.Context, plaintext, condition []byte, identity string) ([]byte, error) {
	return c.post(ctx, "/v1/encrypt", plaintext, condition, identity)
}

func (c *HTTPCohort) Decrypt(ctx context.Context, ciphertext []byte, identity string) ([]byte, error) {
	return c.post(ctx, "/v1/decrypt", ciphertext, nil, identity)
}

func (c *HTTPCohort) post(ctx context.Context, path string, payload, condition []byte, identity string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Identity", identity)
	if condition != nil {
		req.Header.Set("X-Access-Condition", string(condition))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: cohort unreachable: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading cohort response: %v", common.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(body), thresholdNotMetMarker) {
			return nil, fmt.Errorf("%w", common.ErrThresholdNotMet)
		}
		return nil, fmt.Errorf("cohort returned %s: %s", resp.Status, string(body))
	}

	return body, nil
}
