package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-transport-backend/internal/model"
)

// activeBinStatuses are the states that keep a bin on a collector's worklist.
// Collected and Skipped bins drop off the list while keeping their historical
// assigned_to pointer.
var activeBinStatuses = []model.BinStatus{model.BinPending, model.BinAssigned}

// CreateBin registers a newly reported bin in the Pending state.
func (s *gormStore) CreateBin(ctx context.Context, params CreateBinParams) (*model.Bin, error) {
	if params.Location == "" || params.City == "" {
		return nil, fmt.Errorf("%w: location and city are required", ErrInvalidInput)
	}
	if params.ReportedAt.IsZero() {
		return nil, fmt.Errorf("%w: reportedAt is required", ErrInvalidInput)
	}

	bin := model.Bin{
		ID:         uuid.New(),
		Location:   params.Location,
		City:       params.City,
		Status:     model.BinPending,
		ReportedAt: params.ReportedAt,
		Notes:      params.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&bin).Error; err != nil {
		return nil, fmt.Errorf("failed to create bin: %w", err)
	}
	return &bin, nil
}

// GetBin returns a single bin by id.
func (s *gormStore) GetBin(ctx context.Context, id uuid.UUID) (*model.Bin, error) {
	return findBin(s.db.WithContext(ctx), id)
}

// ListBins returns bins matching the filter, newest reports first.
func (s *gormStore) ListBins(ctx context.Context, filter BinFilter) ([]model.Bin, error) {
	q := s.db.WithContext(ctx).Order("reported_at DESC")
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Status != "" {
		if !model.ValidBinStatus(filter.Status) {
			return nil, fmt.Errorf("%w: unknown bin status %q", ErrInvalidInput, filter.Status)
		}
		q = q.Where("status = ?", filter.Status)
	}

	var bins []model.Bin
	if err := q.Find(&bins).Error; err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	return bins, nil
}

// ListBinsByCollector returns the collector's active worklist.
func (s *gormStore) ListBinsByCollector(ctx context.Context, collectorID uuid.UUID) ([]model.Bin, error) {
	if _, err := findCollector(s.db.WithContext(ctx), collectorID); err != nil {
		return nil, err
	}
	return activeBins(s.db.WithContext(ctx), collectorID)
}

// activeBins is the derived worklist query shared by collector reads.
func activeBins(tx *gorm.DB, collectorID uuid.UUID) ([]model.Bin, error) {
	var bins []model.Bin
	err := tx.
		Where("assigned_to = ? AND status IN ?", collectorID, activeBinStatuses).
		Order("assigned_at ASC").
		Find(&bins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load worklist for collector %s: %w", collectorID, err)
	}
	return bins, nil
}

// AssignCollector puts a bin on a collector's worklist. Assigning an already
// assigned bin overwrites the prior assignee; the derived worklist makes the
// implicit detach and the repeated-assign case naturally idempotent.
func (s *gormStore) AssignCollector(ctx context.Context, binID, collectorID uuid.UUID) (*model.Bin, error) {
	var updated *model.Bin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := findBin(tx, binID)
		if err != nil {
			return err
		}
		if _, err := findCollector(tx, collectorID); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := versionedUpdate(tx, bin, bin.Version, map[string]any{
			"assigned_to": collectorID,
			"status":      model.BinAssigned,
			"assigned_at": now,
		}); err != nil {
			return err
		}

		updated, err = findBin(tx, binID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateBinStatus records the outcome of a visit. Only the collector the bin
// is assigned to may report it; the assigned_to pointer is kept for history
// even after Collected/Skipped.
func (s *gormStore) UpdateBinStatus(ctx context.Context, binID uuid.UUID, status model.BinStatus, collectorID uuid.UUID) (*model.Bin, error) {
	if !model.ValidBinStatus(status) {
		return nil, fmt.Errorf("%w: unknown bin status %q", ErrInvalidInput, status)
	}

	var updated *model.Bin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := findBin(tx, binID)
		if err != nil {
			return err
		}
		if bin.AssignedTo != nil && *bin.AssignedTo != collectorID {
			return fmt.Errorf("%w: collector %s is not assigned to bin %s", ErrForbidden, collectorID, binID)
		}

		fields := map[string]any{"status": status}
		now := time.Now().UTC()
		switch status {
		case model.BinCollected:
			fields["collected_at"] = now
		case model.BinSkipped:
			fields["skipped_at"] = now
		}
		if err := versionedUpdate(tx, bin, bin.Version, fields); err != nil {
			return err
		}

		updated, err = findBin(tx, binID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReassignBin moves a bin onto another collector's worklist, typically to
// recover a Skipped bin. A skipped timestamp from the previous attempt is
// cleared.
func (s *gormStore) ReassignBin(ctx context.Context, binID, collectorID uuid.UUID, status model.BinStatus) (*model.Bin, error) {
	if status == "" {
		status = model.BinAssigned
	}
	if !model.ValidBinStatus(status) {
		return nil, fmt.Errorf("%w: unknown bin status %q", ErrInvalidInput, status)
	}

	var updated *model.Bin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := findBin(tx, binID)
		if err != nil {
			return err
		}
		if _, err := findCollector(tx, collectorID); err != nil {
			return err
		}

		if err := versionedUpdate(tx, bin, bin.Version, map[string]any{
			"assigned_to": collectorID,
			"status":      status,
			"assigned_at": time.Now().UTC(),
			"skipped_at":  nil,
		}); err != nil {
			return err
		}

		updated, err = findBin(tx, binID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResetBinStatus is the universal undo: the bin returns to the unassigned
// pool with all assignment timestamps cleared.
func (s *gormStore) ResetBinStatus(ctx context.Context, binID uuid.UUID, status model.BinStatus) (*model.Bin, error) {
	if status == "" {
		status = model.BinPending
	}
	if !model.ValidBinStatus(status) {
		return nil, fmt.Errorf("%w: unknown bin status %q", ErrInvalidInput, status)
	}

	var updated *model.Bin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := findBin(tx, binID)
		if err != nil {
			return err
		}

		if err := versionedUpdate(tx, bin, bin.Version, map[string]any{
			"assigned_to":  nil,
			"status":       status,
			"assigned_at":  nil,
			"collected_at": nil,
			"skipped_at":   nil,
		}); err != nil {
			return err
		}

		updated, err = findBin(tx, binID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBin removes a bin. The worklist membership is derived, so no
// collector-side bookkeeping is needed.
func (s *gormStore) DeleteBin(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bin, err := findBin(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(bin).Error; err != nil {
			return fmt.Errorf("failed to delete bin %s: %w", id, err)
		}
		return nil
	})
}
