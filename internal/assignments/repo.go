package assignments

import (
	"context"
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the commitment ledger.
// Assignments are never deleted; unassign only stamps ended_at.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error)
	FindOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Assignment, error)
	FindOpenByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Assignment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Assignment, error)
	End(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

// FindOpenByOrder returns every open row for the order. Correct sequencing
// guarantees at most one; callers treat more as an invariant violation.
func (r *repository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Assignment, error) {
	var result []models.Assignment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND ended_at IS NULL", orderID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) FindOpenByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Assignment, error) {
	var result []models.Assignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND ended_at IS NULL", driverID).
		Order("starts_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Assignment, error) {
	var result []models.Assignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) End(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND ended_at IS NULL", id).
		UpdateColumn("ended_at", at).Error
}
