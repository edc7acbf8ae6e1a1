package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-transport-backend/internal/model"
)

// Store defines the interface for all assignment-engine operations.
type Store interface {
	DB() *gorm.DB

	CreateBin(ctx context.Context, params CreateBinParams) (*model.Bin, error)
	GetBin(ctx context.Context, id uuid.UUID) (*model.Bin, error)
	ListBins(ctx context.Context, filter BinFilter) ([]model.Bin, error)
	ListBinsByCollector(ctx context.Context, collectorID uuid.UUID) ([]model.Bin, error)
	AssignCollector(ctx context.Context, binID, collectorID uuid.UUID) (*model.Bin, error)
	UpdateBinStatus(ctx context.Context, binID uuid.UUID, status model.BinStatus, collectorID uuid.UUID) (*model.Bin, error)
	ReassignBin(ctx context.Context, binID, collectorID uuid.UUID, status model.BinStatus) (*model.Bin, error)
	ResetBinStatus(ctx context.Context, binID uuid.UUID, status model.BinStatus) (*model.Bin, error)
	DeleteBin(ctx context.Context, id uuid.UUID) error

	CreateCollector(ctx context.Context, params CreateCollectorParams) (*model.Collector, error)
	GetCollector(ctx context.Context, id uuid.UUID) (*model.Collector, error)
	ListCollectors(ctx context.Context, filter CollectorFilter) ([]model.Collector, error)
	UpdateCollector(ctx context.Context, id uuid.UUID, params UpdateCollectorParams) (*model.Collector, error)
	DeleteCollector(ctx context.Context, id uuid.UUID) error

	CreateTruck(ctx context.Context, params CreateTruckParams) (*model.Truck, error)
	GetTruck(ctx context.Context, id uuid.UUID) (*model.Truck, error)
	ListTrucks(ctx context.Context, filter TruckFilter) ([]model.Truck, error)
	UpdateTruck(ctx context.Context, id uuid.UUID, params UpdateTruckParams) (*model.Truck, error)
	DeleteTruck(ctx context.Context, id uuid.UUID) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that manage state outside
// the engine's scope, such as push subscriptions.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// findBin loads a bin by id inside tx, translating the missing-row case.
func findBin(tx *gorm.DB, id uuid.UUID) (*model.Bin, error) {
	var bin model.Bin
	if err := tx.First(&bin, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bin %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load bin %s: %w", id, err)
	}
	return &bin, nil
}

func findCollector(tx *gorm.DB, id uuid.UUID) (*model.Collector, error) {
	var collector model.Collector
	if err := tx.First(&collector, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collector %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load collector %s: %w", id, err)
	}
	return &collector, nil
}

func findTruck(tx *gorm.DB, id uuid.UUID) (*model.Truck, error) {
	var truck model.Truck
	if err := tx.First(&truck, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: truck %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load truck %s: %w", id, err)
	}
	return &truck, nil
}

// versionedUpdate applies fields to entity conditioned on the version read at
// the start of the operation. Zero rows affected means a concurrent writer got
// there first; the caller's transaction rolls back and the race is reported as
// a Conflict instead of silently interleaving.
func versionedUpdate(tx *gorm.DB, entity any, version int64, fields map[string]any) error {
	fields["version"] = gorm.Expr("version + 1")
	res := tx.Model(entity).Where("version = ?", version).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: concurrently modified", ErrConflict)
	}
	return nil
}
