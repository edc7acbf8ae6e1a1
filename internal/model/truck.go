package model

import (
	"time"

	"github.com/google/uuid"
)

// TruckStatus is the operational state of a truck.
type TruckStatus string

const (
	TruckActive      TruckStatus = "active"
	TruckMaintenance TruckStatus = "maintenance"
	TruckInactive    TruckStatus = "inactive"
)

// ValidTruckStatus reports whether s is one of the recognized truck states.
func ValidTruckStatus(s TruckStatus) bool {
	switch s {
	case TruckActive, TruckMaintenance, TruckInactive:
		return true
	}
	return false
}

// Truck represents a vehicle resource attachable to exactly one collector.
// The attachment itself lives on Collector.TruckID; AssignedTo is resolved
// by the store when a truck is read.
type Truck struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PlateNumber     string      `gorm:"size:32;uniqueIndex;not null" json:"plateNumber"`
	Capacity        int         `gorm:"not null" json:"capacity"`
	Status          TruckStatus `gorm:"size:32;index;not null" json:"status"`
	CurrentLocation string      `gorm:"size:256" json:"currentLocation"`
	LastMaintenance *time.Time  `json:"lastMaintenance"`
	Version         int64       `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`

	// AssignedTo is the collector currently operating this truck, if any.
	// Derived from Collector.TruckID by the store.
	AssignedTo *Collector `gorm:"-" json:"assignedTo,omitempty"`
}
