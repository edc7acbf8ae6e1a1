package store

import (
	"time"

	"github.com/google/uuid"

	"waste-transport-backend/internal/model"
)

// CreateBinParams carries the required fields for reporting a new bin.
type CreateBinParams struct {
	Location   string
	City       string
	ReportedAt time.Time
	Notes      string
}

// BinFilter narrows a bin listing. Zero values match everything.
type BinFilter struct {
	City   string
	Status model.BinStatus
}

// CreateCollectorParams carries the fields for registering a collector.
// TruckID, when set, attaches the truck at creation time.
type CreateCollectorParams struct {
	Name    string
	City    string
	Status  model.CollectorStatus
	TruckID *uuid.UUID
}

// CollectorFilter narrows a collector listing. Zero values match everything.
type CollectorFilter struct {
	City   string
	Status model.CollectorStatus
}

// UpdateCollectorParams is a partial update. Nil pointers leave the field
// unchanged. DetachTruck releases the current truck; it is mutually exclusive
// with TruckID.
type UpdateCollectorParams struct {
	Name            *string
	City            *string
	Status          *model.CollectorStatus
	CurrentLocation *string
	TruckID         *uuid.UUID
	DetachTruck     bool
}

// CreateTruckParams carries the fields for registering a truck.
type CreateTruckParams struct {
	PlateNumber string
	Capacity    int
	Status      model.TruckStatus
}

// TruckFilter narrows a truck listing. Zero values match everything.
type TruckFilter struct {
	Status model.TruckStatus
}

// UpdateTruckParams is a partial update. Nil pointers leave the field
// unchanged. AssignedTo attaches the truck to a collector from the truck side;
// DetachCollector releases the current one.
type UpdateTruckParams struct {
	PlateNumber     *string
	Capacity        *int
	Status          *model.TruckStatus
	CurrentLocation *string
	LastMaintenance *time.Time
	AssignedTo      *uuid.UUID
	DetachCollector bool
}
