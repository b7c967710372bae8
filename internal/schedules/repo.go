package schedules

import (
	"context"
	"time"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the deferred assignment
// queue. Rows are never deleted; they only move through the status machine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ScheduledAssignment) (*models.ScheduledAssignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduledAssignment, error)
	FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.ScheduledAssignment, error)
	FindBlockingByDriver(ctx context.Context, driverID uuid.UUID) ([]models.ScheduledAssignment, error)
	FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.ScheduledAssignment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ScheduledAssignmentStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a schedule repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ScheduledAssignment) (*models.ScheduledAssignment, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduledAssignment, error) {
	var entry models.ScheduledAssignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindLiveByOrder returns the order's single non-terminal entry, if any.
func (r *repository) FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.ScheduledAssignment, error) {
	var entry models.ScheduledAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, blockingStatuses()).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindBlockingByDriver(ctx context.Context, driverID uuid.UUID) ([]models.ScheduledAssignment, error) {
	var entries []models.ScheduledAssignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status IN ?", driverID, blockingStatuses()).
		Order("starts_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) FindDuePending(ctx context.Context, now time.Time, limit int) ([]models.ScheduledAssignment, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND execute_at <= ?", enums.ScheduledAssignmentStatusPending, now).
		Order("execute_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.ScheduledAssignment
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// TransitionStatus performs a compare-and-set on the status column. It is the
// claim primitive: a false return means another writer already moved the row
// out of the expected state.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ScheduledAssignmentStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledAssignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func blockingStatuses() []enums.ScheduledAssignmentStatus {
	return []enums.ScheduledAssignmentStatus{
		enums.ScheduledAssignmentStatusPending,
		enums.ScheduledAssignmentStatusProcessing,
	}
}
