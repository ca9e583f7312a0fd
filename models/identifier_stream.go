package models

import (
	"time"
)

// IdentifierStream is a named counter row. Every identifier ever issued for
// the stream is <= HighWaterMark; reservations advance the mark atomically
// with a single fetch-and-add UPDATE, so concurrent callers can never be
// handed overlapping ranges. Abandoned reservations leave gaps, which is
// safe; duplicates are not.
type IdentifierStream struct {
	Name          string    `json:"name" gorm:"primaryKey"`
	HighWaterMark uint64    `json:"high_water_mark"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (IdentifierStream) TableName() string {
	return "identifier_streams"
}
