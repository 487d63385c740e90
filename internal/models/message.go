package models

import "time"

// Message is a chat message captured by a platform scraper. Transient —
// never persisted directly; drafts and summaries keep their own snapshots.
type Message struct {
	Text      string
	Author    string
	Timestamp time.Time
	Platform  string // "slack", "discord", "whatsapp", or opaque
	Images    []ImageRef
}

// ImageRef points at an image attached to a message. Owned by the Message
// that references it.
type ImageRef struct {
	// Source is a URL, a data URL, or empty when Data carries raw bytes.
	Source  string
	Data    []byte
	AltText string
}

// Thread is an ordered group of related messages treated as one unit for
// summarization. Order is significant and preserved end to end.
type Thread struct {
	ThreadID string
	Platform string
	Messages []Message
}

// SnapshotMessage is the denormalized message copy embedded in persisted
// summaries and issue drafts.
type SnapshotMessage struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix ms, 0 when unknown
}

// Snapshot converts messages to their persisted snapshot form.
func Snapshot(msgs []Message) []SnapshotMessage {
	out := make([]SnapshotMessage, 0, len(msgs))
	for _, m := range msgs {
		var ts int64
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.UnixMilli()
		}
		out = append(out, SnapshotMessage{Author: m.Author, Text: m.Text, Timestamp: ts})
	}
	return out
}
