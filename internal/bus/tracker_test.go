package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyRuleOrder(t *testing.T) {
	tr := NewTracker("sender-a")
	tr.MarkSent("cid-1")

	tests := []struct {
		name string
		a    PeerAnnouncement
		want Classification
	}{
		{"own echo wins over sent set", PeerAnnouncement{FileID: "cid-1", Sender: "sender-a"}, OwnEcho},
		{"own upload from another session", PeerAnnouncement{FileID: "cid-1", Sender: "sender-b"}, OwnUpload},
		{"fresh foreign file", PeerAnnouncement{FileID: "cid-2", Sender: "sender-b"}, Accepted},
		{"repeat of accepted file", PeerAnnouncement{FileID: "cid-2", Sender: "sender-c"}, Duplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tr.Classify(tt.a))
		})
	}
}

func TestClassifyEmptySenderNeverMatchesSelf(t *testing.T) {
	tr := NewTracker("")
	got := tr.Classify(PeerAnnouncement{FileID: "cid-1"})
	require.Equal(t, Accepted, got)
}

func TestSeedReceived(t *testing.T) {
	tr := NewTracker("sender-a")
	tr.SeedReceived("cid-1", "cid-2")

	require.Equal(t, Duplicate, tr.Classify(PeerAnnouncement{FileID: "cid-1", Sender: "x"}))
	require.Equal(t, Accepted, tr.Classify(PeerAnnouncement{FileID: "cid-3", Sender: "x"}))
}

func TestClassifyConcurrentAcceptsOnce(t *testing.T) {
	tr := NewTracker("sender-a")
	a := PeerAnnouncement{FileID: "cid-1", Sender: "sender-b"}

	const n = 32
	var wg sync.WaitGroup
	verdicts := make(chan Classification, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdicts <- tr.Classify(a)
		}()
	}
	wg.Wait()
	close(verdicts)

	accepted := 0
	for v := range verdicts {
		if v == Accepted {
			accepted++
		} else {
			require.Equal(t, Duplicate, v)
		}
	}
	require.Equal(t, 1, accepted)
}
