package models

import (
	"encoding/json"
	"time"
)

// IssueDraft is a GitHub issue proposal awaiting user approval. References
// to the originating classification and summary are soft — the draft keeps
// its own message snapshot and never depends on them for correctness.
type IssueDraft struct {
	ID               uint     `gorm:"primaryKey;autoIncrement"`
	Title            string   `gorm:"size:256;not null"`
	Description      string   `gorm:"type:text"`
	Labels           string   `gorm:"type:json"` // JSON array, set semantics
	Type             Category `gorm:"size:16;not null;index"`
	Platform         string   `gorm:"size:32;index"`
	MessageCount     int
	ClassificationID uint        // soft reference, lookup only
	SummaryID        uint        // soft reference, lookup only
	Status           DraftStatus `gorm:"size:16;default:draft;index"`
	IssueURL         string      `gorm:"size:512"` // set after publication
	OriginalMessages string      `gorm:"type:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SetLabels stores the label set. Order is irrelevant; duplicates dropped.
func (d *IssueDraft) SetLabels(labels []string) error {
	seen := make(map[string]bool, len(labels))
	uniq := make([]string, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	data, err := json.Marshal(uniq)
	if err != nil {
		return err
	}
	d.Labels = string(data)
	return nil
}

// LabelSet decodes the stored labels. Returns nil on an empty column.
func (d *IssueDraft) LabelSet() ([]string, error) {
	if d.Labels == "" {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(d.Labels), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// SetMessages stores the snapshot copy of the originating messages.
func (d *IssueDraft) SetMessages(msgs []SnapshotMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	d.OriginalMessages = string(data)
	return nil
}

// Messages decodes the snapshot copy. Returns nil on an empty column.
func (d *IssueDraft) Messages() ([]SnapshotMessage, error) {
	if d.OriginalMessages == "" {
		return nil, nil
	}
	var msgs []SnapshotMessage
	if err := json.Unmarshal([]byte(d.OriginalMessages), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
