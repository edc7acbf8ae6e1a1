package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-transport-backend/internal/model"
)

// collectorHoldingTruck returns the collector currently attached to the truck,
// or nil if the truck is free.
func collectorHoldingTruck(tx *gorm.DB, truckID uuid.UUID) (*model.Collector, error) {
	var collector model.Collector
	err := tx.First(&collector, "truck_id = ?", truckID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up holder of truck %s: %w", truckID, err)
	}
	return &collector, nil
}

// CreateCollector registers a collector, optionally attaching a truck. The
// attach fails with a Conflict if another collector already holds the truck.
func (s *gormStore) CreateCollector(ctx context.Context, params CreateCollectorParams) (*model.Collector, error) {
	if params.Name == "" || params.City == "" {
		return nil, fmt.Errorf("%w: name and city are required", ErrInvalidInput)
	}
	if params.Status == "" {
		params.Status = model.CollectorActive
	}
	if !model.ValidCollectorStatus(params.Status) {
		return nil, fmt.Errorf("%w: unknown collector status %q", ErrInvalidInput, params.Status)
	}

	collector := model.Collector{
		ID:     uuid.New(),
		Name:   params.Name,
		City:   params.City,
		Status: params.Status,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if params.TruckID != nil {
			if _, err := findTruck(tx, *params.TruckID); err != nil {
				return err
			}
			holder, err := collectorHoldingTruck(tx, *params.TruckID)
			if err != nil {
				return err
			}
			if holder != nil {
				return fmt.Errorf("%w: truck %s is already attached to collector %s", ErrConflict, *params.TruckID, holder.ID)
			}
			collector.TruckID = params.TruckID
		}

		if err := tx.Create(&collector).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && params.TruckID != nil {
				return fmt.Errorf("%w: truck %s is already attached to another collector", ErrConflict, *params.TruckID)
			}
			return fmt.Errorf("failed to create collector: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollector(ctx, collector.ID)
}

// GetCollector returns a collector with its truck and active worklist.
func (s *gormStore) GetCollector(ctx context.Context, id uuid.UUID) (*model.Collector, error) {
	var collector model.Collector
	err := s.db.WithContext(ctx).Preload("Truck").First(&collector, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collector %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load collector %s: %w", id, err)
	}

	bins, err := activeBins(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	collector.ActiveBins = bins
	return &collector, nil
}

// ListCollectors returns collectors matching the filter.
func (s *gormStore) ListCollectors(ctx context.Context, filter CollectorFilter) ([]model.Collector, error) {
	q := s.db.WithContext(ctx).Preload("Truck").Order("name ASC")
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Status != "" {
		if !model.ValidCollectorStatus(filter.Status) {
			return nil, fmt.Errorf("%w: unknown collector status %q", ErrInvalidInput, filter.Status)
		}
		q = q.Where("status = ?", filter.Status)
	}

	var collectors []model.Collector
	if err := q.Find(&collectors).Error; err != nil {
		return nil, fmt.Errorf("failed to list collectors: %w", err)
	}
	return collectors, nil
}

// UpdateCollector applies a partial update. Truck moves follow the
// attach-detach discipline: clearing releases the current truck, setting a
// new one fails with a Conflict if that truck is held by a different
// collector. TruckID is the only stored side of the link, so the previous
// truck is released by the same write that attaches the new one.
func (s *gormStore) UpdateCollector(ctx context.Context, id uuid.UUID, params UpdateCollectorParams) (*model.Collector, error) {
	if params.Status != nil && !model.ValidCollectorStatus(*params.Status) {
		return nil, fmt.Errorf("%w: unknown collector status %q", ErrInvalidInput, *params.Status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collector, err := findCollector(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if params.Name != nil {
			fields["name"] = *params.Name
		}
		if params.City != nil {
			fields["city"] = *params.City
		}
		if params.Status != nil {
			fields["status"] = *params.Status
		}
		if params.CurrentLocation != nil {
			fields["current_location"] = *params.CurrentLocation
		}

		switch {
		case params.DetachTruck:
			fields["truck_id"] = nil
		case params.TruckID != nil:
			if collector.TruckID == nil || *collector.TruckID != *params.TruckID {
				if _, err := findTruck(tx, *params.TruckID); err != nil {
					return err
				}
				holder, err := collectorHoldingTruck(tx, *params.TruckID)
				if err != nil {
					return err
				}
				if holder != nil && holder.ID != id {
					return fmt.Errorf("%w: truck %s is already attached to collector %s", ErrConflict, *params.TruckID, holder.ID)
				}
				fields["truck_id"] = *params.TruckID
			}
		}

		if len(fields) == 0 {
			return nil
		}
		return versionedUpdate(tx, collector, collector.Version, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollector(ctx, id)
}

// DeleteCollector removes a collector, releasing every bin on its active
// worklist back to the unassigned Pending pool. The truck link is stored on
// the collector row, so the truck is freed by the delete itself.
func (s *gormStore) DeleteCollector(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collector, err := findCollector(tx, id)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Bin{}).
			Where("assigned_to = ? AND status IN ?", id, activeBinStatuses).
			Updates(map[string]any{
				"assigned_to": nil,
				"status":      model.BinPending,
				"assigned_at": nil,
				"skipped_at":  nil,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to release bins of collector %s: %w", id, res.Error)
		}

		if err := tx.Where("collector_id = ?", id).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions of collector %s: %w", id, err)
		}

		if err := tx.Delete(collector).Error; err != nil {
			return fmt.Errorf("failed to delete collector %s: %w", id, err)
		}
		return nil
	})
}
