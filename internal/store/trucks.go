package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-transport-backend/internal/model"
)

// truckByPlate returns the truck with the given plate, or nil.
func truckByPlate(tx *gorm.DB, plate string) (*model.Truck, error) {
	var truck model.Truck
	err := tx.First(&truck, "plate_number = ?", plate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up plate %q: %w", plate, err)
	}
	return &truck, nil
}

// CreateTruck registers a truck. Plate uniqueness is checked explicitly
// before the insert; a duplicate-key error from the unique index is
// translated to the same Conflict in case a concurrent create slips past the
// pre-check.
func (s *gormStore) CreateTruck(ctx context.Context, params CreateTruckParams) (*model.Truck, error) {
	if params.PlateNumber == "" {
		return nil, fmt.Errorf("%w: plateNumber is required", ErrInvalidInput)
	}
	if params.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	if params.Status == "" {
		params.Status = model.TruckActive
	}
	if !model.ValidTruckStatus(params.Status) {
		return nil, fmt.Errorf("%w: unknown truck status %q", ErrInvalidInput, params.Status)
	}

	truck := model.Truck{
		ID:          uuid.New(),
		PlateNumber: params.PlateNumber,
		Capacity:    params.Capacity,
		Status:      params.Status,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := truckByPlate(tx, params.PlateNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: plate number %q already exists", ErrConflict, params.PlateNumber)
		}

		if err := tx.Create(&truck).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: plate number %q already exists", ErrConflict, params.PlateNumber)
			}
			return fmt.Errorf("failed to create truck: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

// GetTruck returns a truck with its attached collector resolved.
func (s *gormStore) GetTruck(ctx context.Context, id uuid.UUID) (*model.Truck, error) {
	truck, err := findTruck(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	holder, err := collectorHoldingTruck(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	truck.AssignedTo = holder
	return truck, nil
}

// ListTrucks returns trucks matching the filter with holders resolved in one
// extra query.
func (s *gormStore) ListTrucks(ctx context.Context, filter TruckFilter) ([]model.Truck, error) {
	q := s.db.WithContext(ctx).Order("plate_number ASC")
	if filter.Status != "" {
		if !model.ValidTruckStatus(filter.Status) {
			return nil, fmt.Errorf("%w: unknown truck status %q", ErrInvalidInput, filter.Status)
		}
		q = q.Where("status = ?", filter.Status)
	}

	var trucks []model.Truck
	if err := q.Find(&trucks).Error; err != nil {
		return nil, fmt.Errorf("failed to list trucks: %w", err)
	}
	if len(trucks) == 0 {
		return trucks, nil
	}

	ids := make([]uuid.UUID, len(trucks))
	for i, t := range trucks {
		ids[i] = t.ID
	}
	var holders []model.Collector
	if err := s.db.WithContext(ctx).Where("truck_id IN ?", ids).Find(&holders).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve truck holders: %w", err)
	}
	holderByTruck := make(map[uuid.UUID]*model.Collector, len(holders))
	for i := range holders {
		holderByTruck[*holders[i].TruckID] = &holders[i]
	}
	for i := range trucks {
		trucks[i].AssignedTo = holderByTruck[trucks[i].ID]
	}
	return trucks, nil
}

// UpdateTruck applies a partial update. Attaching from the truck side writes
// the target collector's truck_id; a collector already holding a different
// truck cannot be moved here and yields a Conflict. A location change is
// propagated to the attached collector best-effort after the commit.
func (s *gormStore) UpdateTruck(ctx context.Context, id uuid.UUID, params UpdateTruckParams) (*model.Truck, error) {
	if params.Status != nil && !model.ValidTruckStatus(*params.Status) {
		return nil, fmt.Errorf("%w: unknown truck status %q", ErrInvalidInput, *params.Status)
	}
	if params.Capacity != nil && *params.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		truck, err := findTruck(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if params.PlateNumber != nil && *params.PlateNumber != truck.PlateNumber {
			if *params.PlateNumber == "" {
				return fmt.Errorf("%w: plateNumber cannot be empty", ErrInvalidInput)
			}
			existing, err := truckByPlate(tx, *params.PlateNumber)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != id {
				return fmt.Errorf("%w: plate number %q already exists", ErrConflict, *params.PlateNumber)
			}
			fields["plate_number"] = *params.PlateNumber
		}
		if params.Capacity != nil {
			fields["capacity"] = *params.Capacity
		}
		if params.Status != nil {
			fields["status"] = *params.Status
		}
		if params.CurrentLocation != nil {
			fields["current_location"] = *params.CurrentLocation
		}
		if params.LastMaintenance != nil {
			fields["last_maintenance"] = *params.LastMaintenance
		}

		switch {
		case params.DetachCollector:
			holder, err := collectorHoldingTruck(tx, id)
			if err != nil {
				return err
			}
			if holder != nil {
				if err := versionedUpdate(tx, holder, holder.Version, map[string]any{"truck_id": nil}); err != nil {
					return err
				}
			}
		case params.AssignedTo != nil:
			target, err := findCollector(tx, *params.AssignedTo)
			if err != nil {
				return err
			}
			if target.TruckID != nil && *target.TruckID != id {
				return fmt.Errorf("%w: collector %s is already attached to truck %s", ErrConflict, target.ID, *target.TruckID)
			}
			holder, err := collectorHoldingTruck(tx, id)
			if err != nil {
				return err
			}
			if holder != nil && holder.ID != target.ID {
				if err := versionedUpdate(tx, holder, holder.Version, map[string]any{"truck_id": nil}); err != nil {
					return err
				}
			}
			if target.TruckID == nil {
				if err := versionedUpdate(tx, target, target.Version, map[string]any{"truck_id": id}); err != nil {
					return err
				}
			}
		}

		if len(fields) == 0 {
			return nil
		}
		if err := versionedUpdate(tx, truck, truck.Version, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: plate number already exists", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if params.CurrentLocation != nil {
		s.propagateTruckLocation(ctx, id, *params.CurrentLocation)
	}
	return s.GetTruck(ctx, id)
}

// propagateTruckLocation mirrors a truck's location onto the attached
// collector. Failure here is logged, never fatal: the truck update has
// already committed.
func (s *gormStore) propagateTruckLocation(ctx context.Context, truckID uuid.UUID, location string) {
	holder, err := collectorHoldingTruck(s.db.WithContext(ctx), truckID)
	if err != nil {
		log.Printf("Warning: could not resolve holder of truck %s for location propagation: %v", truckID, err)
		return
	}
	if holder == nil {
		return
	}
	res := s.db.WithContext(ctx).Model(holder).Updates(map[string]any{
		"current_location": location,
		"version":          gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		log.Printf("Warning: failed to propagate location of truck %s to collector %s: %v", truckID, holder.ID, res.Error)
	}
}

// DeleteTruck removes a truck, detaching its collector first in the same
// transaction.
func (s *gormStore) DeleteTruck(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		truck, err := findTruck(tx, id)
		if err != nil {
			return err
		}

		holder, err := collectorHoldingTruck(tx, id)
		if err != nil {
			return err
		}
		if holder != nil {
			if err := versionedUpdate(tx, holder, holder.Version, map[string]any{"truck_id": nil}); err != nil {
				return err
			}
		}

		if err := tx.Delete(truck).Error; err != nil {
			return fmt.Errorf("failed to delete truck %s: %w", id, err)
		}
		return nil
	})
}
