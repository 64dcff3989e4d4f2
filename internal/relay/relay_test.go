package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemory_PublisherReceivesOwnMessages(t *testing.T) {
	r := NewInMemory()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := r.Subscribe(ctx, "room")
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, "room", []byte("hello")))

	select {
	case msg := <-ch:
		require.Equal(t, []byte("hello"), msg)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestInMemory_TopicsAreIsolated(t *testing.T) {
	r := NewInMemory()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := r.Subscribe(ctx, "room-a")
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, "room-b", []byte("for b")))

	select {
	case msg := <-a:
		t.Fatalf("unexpected delivery on room-a: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInMemory_FanOut(t *testing.T) {
	r := NewInMemory()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const subscribers = 3
	chans := make([]<-chan []byte, subscribers)
	for i := range chans {
		ch, err := r.Subscribe(ctx, "room")
		require.NoError(t, err)
		chans[i] = ch
	}

	require.NoError(t, r.Publish(ctx, "room", []byte("fan")))

	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(c <-chan []byte) {
			defer wg.Done()
			select {
			case msg := <-c:
				require.Equal(t, []byte("fan"), msg)
			case <-time.After(time.Second):
				t.Error("missing delivery")
			}
		}(ch)
	}
	wg.Wait()
}

func TestWakuREST_PublishAndPoll(t *testing.T) {
	var mu sync.Mutex
	var queued []wakuMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/relay/v1/auto/messages":
			var m wakuMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
			mu.Lock()
			queued = append(queued, m)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)

		case r.Method == http.MethodPost && r.URL.Path == "/relay/v1/auto/subscriptions":
			w.WriteHeader(http.StatusOK)

		case r.Method == http.MethodGet:
			mu.Lock()
			out := queued
			queued = nil
			mu.Unlock()
			require.NoError(t, json.NewEncoder(w).Encode(out))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	relay := NewWakuREST(srv.URL, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := relay.Subscribe(ctx, "/cyphershare/1/room-xyz/proto")
	require.NoError(t, err)

	require.NoError(t, relay.Publish(ctx, "/cyphershare/1/room-xyz/proto", []byte("announce")))

	select {
	case msg := <-ch:
		require.Equal(t, []byte("announce"), msg)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not deliver the message")
	}
}

func TestWakuREST_PublishEncodesBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m wakuMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		decoded, err := base64.StdEncoding.DecodeString(m.Payload)
		require.NoError(t, err)
		require.Equal(t, []byte("raw-bytes"), decoded)
		require.Equal(t, "/t", m.ContentTopic)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewWakuREST(srv.URL, time.Second)
	require.NoError(t, relay.Publish(context.Background(), "/t", []byte("raw-bytes")))
}
