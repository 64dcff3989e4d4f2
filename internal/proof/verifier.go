package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/logging"
)

const (
	submitPath    = "/api/submit-email-computation-proof"
	tokenValidity = 5 * time.Minute
)

// VerifierClient submits reveal payloads to the external proof verifier.
// Requests carry a short-lived bearer token naming the payout address.
type VerifierClient struct {
	baseURL       string
	payoutAddress string
	jwtSecret     []byte
	http          *http.Client
	log           logging.Logger
}

func NewVerifierClient(baseURL, payoutAddress string, jwtSecret []byte, log logging.Logger) *VerifierClient {
	return &VerifierClient{
		baseURL:       baseURL,
		payoutAddress: payoutAddress,
		jwtSecret:     jwtSecret,
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           log,
	}
}

type submitRequest struct {
	EMLMimeContent        string `json:"emlMimeContent"`
	OriginalScriptContent string `json:"originalScriptContent"`
	WorkerProvidedSecret  string `json:"workerProvidedSecret"`
}

type submitResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (c *VerifierClient) Submit(ctx context.Context, sub models.EmailProofSubmission) (string, error) {
	body, err := json.Marshal(submitRequest{
		EMLMimeContent:        sub.EMLRawContent,
		OriginalScriptContent: sub.ScriptContent,
		WorkerProvidedSecret:  sub.Secret,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := GenerateToken(c.payoutAddress, c.jwtSecret, tokenValidity)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", common.ErrProof, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: submit proof: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: verifier response: %v", common.ErrTransport, err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = resp.Status
		}
		return "", fmt.Errorf("%w: verifier rejected submission: %s", common.ErrProof, out.Error)
	}
	c.log.Debug(ctx, "proof submitted", "txHash", out.TransactionHash)
	return out.TransactionHash, nil
}
