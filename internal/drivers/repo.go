package drivers

import (
	"context"

	"github.com/avelazquez/courierdesk-backend/pkg/db/models"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the driver directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, lifecycle *enums.DriverLifecycleStatus) ([]models.Driver, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceUnavailabilities(ctx context.Context, driverID uuid.UUID, windows []models.DriverUnavailability) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a driver repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	if err := r.db.WithContext(ctx).Create(driver).Error; err != nil {
		return nil, err
	}
	return driver, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.WithContext(ctx).
		Preload("Unavailabilities", func(db *gorm.DB) *gorm.DB {
			return db.Order("starts_at ASC")
		}).
		Where("id = ?", id).
		First(&driver).Error
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *repository) List(ctx context.Context, lifecycle *enums.DriverLifecycleStatus) ([]models.Driver, error) {
	query := r.db.WithContext(ctx).
		Preload("Unavailabilities", func(db *gorm.DB) *gorm.DB {
			return db.Order("starts_at ASC")
		}).
		Order("full_name ASC")
	if lifecycle != nil {
		query = query.Where("lifecycle_status = ?", *lifecycle)
	}

	var result []models.Driver
	if err := query.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ReplaceUnavailabilities rewrites a driver's whole window set. The merge
// invariant is maintained by writing only pre-merged sets through here.
func (r *repository) ReplaceUnavailabilities(ctx context.Context, driverID uuid.UUID, windows []models.DriverUnavailability) error {
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Delete(&models.DriverUnavailability{}).Error; err != nil {
		return err
	}
	if len(windows) == 0 {
		return nil
	}
	for i := range windows {
		windows[i].DriverID = driverID
	}
	return r.db.WithContext(ctx).Create(&windows).Error
}
