package atmloading

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/repo"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
)

// Repository persists ATM loading records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, loading *models.ATMLoading) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ATMLoading, error)
	Update(ctx context.Context, loading *models.ATMLoading) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ATMLoading, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ATMLoading, error)
	ListByATM(ctx context.Context, atmID uuid.UUID) ([]models.ATMLoading, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns an ATM loading repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, loading *models.ATMLoading) error {
	return r.DB(ctx).Create(loading).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ATMLoading, error) {
	var loading models.ATMLoading
	if err := r.DB(ctx).Where("id = ?", id).First(&loading).Error; err != nil {
		return nil, err
	}
	return &loading, nil
}

func (r *repository) Update(ctx context.Context, loading *models.ATMLoading) error {
	updates := loading.Notes.Columns()
	updates["atm_id"] = loading.ATMID
	updates["total_amount"] = loading.TotalAmount
	updates["loading_date"] = loading.LoadingDate
	updates["comment"] = loading.Comment
	res := r.DB(ctx).Model(&models.ATMLoading{}).Where("id = ?", loading.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ATMLoading{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ATMLoading, error) {
	var rows []models.ATMLoading
	if err := r.DB(ctx).Scopes(repo.BeforeCursor(cursor, limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ATMLoading, error) {
	var rows []models.ATMLoading
	if err := r.DB(ctx).
		Where("client_id = ?", clientID).
		Order("loading_date DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByATM(ctx context.Context, atmID uuid.UUID) ([]models.ATMLoading, error) {
	var rows []models.ATMLoading
	if err := r.DB(ctx).
		Where("atm_id = ?", atmID).
		Order("loading_date DESC").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
