package model

import (
	"time"

	"github.com/google/uuid"
)

// BinStatus is the lifecycle state of a waste bin.
type BinStatus string

const (
	BinPending   BinStatus = "Pending"
	BinAssigned  BinStatus = "Assigned"
	BinCollected BinStatus = "Collected"
	BinSkipped   BinStatus = "Skipped"
)

// ValidBinStatus reports whether s is one of the recognized bin states.
func ValidBinStatus(s BinStatus) bool {
	switch s {
	case BinPending, BinAssigned, BinCollected, BinSkipped:
		return true
	}
	return false
}

// Bin represents a waste-collection point.
//
// AssignedTo is retained after a Collected/Skipped transition so the bin
// stays historically linked to the collector who handled it; the active
// worklist is derived from status, not from this pointer alone.
type Bin struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Location    string     `gorm:"size:256;not null" json:"location"`
	City        string     `gorm:"size:128;index;not null" json:"city"`
	Status      BinStatus  `gorm:"size:32;index;not null" json:"status"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid;index" json:"assignedTo"`
	ReportedAt  time.Time  `gorm:"not null" json:"reportedAt"`
	AssignedAt  *time.Time `json:"assignedAt"`
	CollectedAt *time.Time `json:"collectedAt"`
	SkippedAt   *time.Time `json:"skippedAt"`
	Notes       string     `gorm:"size:1024" json:"notes"`
	Version     int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
