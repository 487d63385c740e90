package models

import "time"

// Classification is the persisted result of classifying one message.
// Created on every classify call; never mutated afterwards.
type Classification struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"`
	MessageText      string     `gorm:"type:text;not null"`
	Platform         string     `gorm:"size:32;index"`
	Author           string     `gorm:"size:128"`
	MessageTimestamp int64      // unix ms of the original message
	Category         Category   `gorm:"size:16;not null;index"`
	Confidence       Confidence `gorm:"size:8;not null"`
	RawResponse      string     `gorm:"type:text"`
	CreatedAt        time.Time
}
