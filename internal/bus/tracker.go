package bus

import "sync"

// Classification is the verdict on one inbound announcement.
type Classification int

const (
	// Accepted means the announcement is new and foreign and has been
	// recorded in the received set.
	Accepted Classification = iota
	// OwnEcho means the announcement carries our own sender ID.
	OwnEcho
	// OwnUpload means the content ID is one we published ourselves.
	OwnUpload
	// Duplicate means the content ID was already accepted earlier.
	Duplicate
)

func (c Classification) String() string {
	switch c {
	case Accepted:
		return "accepted"
	case OwnEcho:
		return "own-echo"
	case OwnUpload:
		return "own-upload"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Tracker owns the sent and received content ID sets used to deduplicate
// the announcement stream. The check-then-insert in Classify is atomic,
// so an ID is accepted at most once even under concurrent delivery.
type Tracker struct {
	mu       sync.Mutex
	self     string
	sent     map[string]struct{}
	received map[string]struct{}
}

func NewTracker(selfSenderID string) *Tracker {
	return &Tracker{
		self:     selfSenderID,
		sent:     make(map[string]struct{}),
		received: make(map[string]struct{}),
	}
}

// MarkSent records a content ID we published. Must be called before the
// announcement is handed to the relay, otherwise a fast echo could be
// accepted as a foreign file.
func (t *Tracker) MarkSent(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent[fileID] = struct{}{}
}

// SeedReceived pre-populates the received set, typically from records
// restored out of the local store on startup.
func (t *Tracker) SeedReceived(fileIDs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range fileIDs {
		t.received[id] = struct{}{}
	}
}

// Classify applies the suppression rules in order: own sender echo first,
// then own uploads by ID, then previously accepted IDs. An Accepted
// verdict records the ID in the received set in the same critical section.
func (t *Tracker) Classify(a PeerAnnouncement) Classification {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a.Sender != "" && a.Sender == t.self {
		return OwnEcho
	}
	if _, ok := t.sent[a.FileID]; ok {
		return OwnUpload
	}
	if _, ok := t.received[a.FileID]; ok {
		return Duplicate
	}
	t.received[a.FileID] = struct{}{}
	return Accepted
}
