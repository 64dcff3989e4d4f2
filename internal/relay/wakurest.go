package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
)

// WakuREST is a Relay over the REST API of a Waku light node. Publishing
// posts a message on the auto-sharded relay; subscribing registers the
// content topic and polls for new messages.
type WakuREST struct {
	baseURL      string
	httpc        *http.Client
	pollInterval time.Duration
}

// wakuMessage is the node's wire representation. Payload is base64.
type wakuMessage struct {
	Payload      string `json:"payload"`
	ContentTopic string `json:"contentTopic"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

func NewWakuREST(baseURL string, pollInterval time.Duration) *WakuREST {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &WakuREST{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpc:        &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
	}
}

func (w *WakuREST) Publish(ctx context.Context, topic string, payload []byte) error {
	body, err := json.Marshal(wakuMessage{
		Payload:      base64.StdEncoding.EncodeToString(payload),
		ContentTopic: topic,
		Timestamp:    time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/relay/v1/auto/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: waku node unreachable: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: waku publish failed: %s: %s", common.ErrTransport, resp.Status, string(b))
	}
	return nil
}

func (w *WakuREST) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	if err := w.register(ctx, topic); err != nil {
		return nil, err
	}

	ch := make(chan []byte, 64)
	go w.pollLoop(ctx, topic, ch)
	return ch, nil
}

func (w *WakuREST) register(ctx context.Context, topic string) error {
	body, err := json.Marshal(map[string][]string{"contentTopics": {topic}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/relay/v1/auto/subscriptions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: waku node unreachable: %v", common.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: waku subscribe failed: %s: %s", common.ErrTransport, resp.Status, string(b))
	}
	return nil
}

func (w *WakuREST) pollLoop(ctx context.Context, topic string, ch chan<- []byte) {
	defer close(ch)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := w.fetch(ctx, topic)
			if err != nil {
				continue // transient; next tick retries
			}
			for _, m := range msgs {
				payload, err := base64.StdEncoding.DecodeString(m.Payload)
				if err != nil {
					continue
				}
				select {
				case ch <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *WakuREST) fetch(ctx context.Context, topic string) ([]wakuMessage, error) {
	u := w.baseURL + "/relay/v1/auto/messages/" + url.PathEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("waku fetch failed: %s", resp.Status)
	}

	var msgs []wakuMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (w *WakuREST) Close() error { return nil }
