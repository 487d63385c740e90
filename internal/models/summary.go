package models

import (
	"encoding/json"
	"time"
)

// Summary is the persisted condensed narrative for one thread.
type Summary struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ThreadID         string `gorm:"size:128;index"`
	Platform         string `gorm:"size:32;index"`
	MessageCount     int    `gorm:"not null"`
	OriginalMessages string `gorm:"type:json"` // JSON array of SnapshotMessage
	Summary          string `gorm:"type:text"`
	SummaryLength    int
	CreatedAt        time.Time
}

// SetMessages stores the snapshot copy of the summarized messages.
func (s *Summary) SetMessages(msgs []SnapshotMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	s.OriginalMessages = string(data)
	s.MessageCount = len(msgs)
	return nil
}

// Messages decodes the snapshot copy. Returns nil on an empty column.
func (s *Summary) Messages() ([]SnapshotMessage, error) {
	if s.OriginalMessages == "" {
		return nil, nil
	}
	var msgs []SnapshotMessage
	if err := json.Unmarshal([]byte(s.OriginalMessages), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
