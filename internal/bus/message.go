// Package bus sits between the raw relay stream and the application: it
// publishes file announcements for a room and turns the at-least-once,
// echo-prone inbound stream into a filtered stream of new, foreign,
// file-bearing events.
package bus

import (
	"encoding/json"
	"fmt"
)

// PeerAnnouncement is the wire envelope gossiped on the room topic.
// Field names are fixed by the deployed network; fileSize is in megabytes
// and timestamp in epoch milliseconds.
type PeerAnnouncement struct {
	FileName        string  `json:"fileName"`
	FileSize        float64 `json:"fileSize"`
	FileType        string  `json:"fileType"`
	FileID          string  `json:"fileId"`
	Sender          string  `json:"sender"`
	Timestamp       int64   `json:"timestamp"`
	IsEncrypted     bool    `json:"isEncrypted,omitempty"`
	AccessCondition string  `json:"accessCondition,omitempty"`
}

func (a PeerAnnouncement) Encode() ([]byte, error) {
	return json.Marshal(a)
}

func DecodeAnnouncement(payload []byte) (PeerAnnouncement, error) {
	var a PeerAnnouncement
	if err := json.Unmarshal(payload, &a); err != nil {
		return PeerAnnouncement{}, fmt.Errorf("malformed announcement: %w", err)
	}
	return a, nil
}

// TopicForRoom derives the shared content topic for a room.
func TopicForRoom(roomID string) string {
	return fmt.Sprintf("/cyphershare/1/room-%s/proto", roomID)
}
