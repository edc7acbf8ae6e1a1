package model

import (
	"time"

	"github.com/google/uuid"
)

// CollectorStatus is the availability state of a collector.
type CollectorStatus string

const (
	CollectorActive  CollectorStatus = "active"
	CollectorIdle    CollectorStatus = "idle"
	CollectorOffline CollectorStatus = "offline"
)

// ValidCollectorStatus reports whether s is one of the recognized collector states.
func ValidCollectorStatus(s CollectorStatus) bool {
	switch s {
	case CollectorActive, CollectorIdle, CollectorOffline:
		return true
	}
	return false
}

// Collector represents a worker who collects from bins, optionally operating
// a truck.
//
// TruckID is the single source of truth for the collector-truck link. The
// unique index enforces at most one collector per truck at the storage level,
// so the truck side never needs a stored back-reference.
type Collector struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"size:256;not null" json:"name"`
	City            string          `gorm:"size:128;index;not null" json:"city"`
	Status          CollectorStatus `gorm:"size:32;index;not null" json:"status"`
	TruckID         *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"truckId"`
	CurrentLocation string          `gorm:"size:256" json:"currentLocation"`
	Version         int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Associations
	Truck *Truck `gorm:"foreignKey:TruckID" json:"truck,omitempty"`

	// ActiveBins is the derived worklist: bins assigned to this collector
	// that have not yet been collected or skipped. Populated by the store.
	ActiveBins []Bin `gorm:"-" json:"assignedBins,omitempty"`
}
