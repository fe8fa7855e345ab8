package clientledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/repo"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
)

// Repository persists client movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, movement *models.ClientMovement) error
	FindByID(ctx context.Context, id int64) (*models.ClientMovement, error)
	// ListByClient returns the whole history oldest first.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ClientMovement, error)
	// ListPage returns up to limit movements newest first, older than beforeID
	// when it is non-zero.
	ListPage(ctx context.Context, clientID uuid.UUID, beforeID int64, limit int) ([]models.ClientMovement, error)
	Update(ctx context.Context, movement *models.ClientMovement) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a client movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Insert(ctx context.Context, movement *models.ClientMovement) error {
	return r.DB(ctx).Create(movement).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.ClientMovement, error) {
	var movement models.ClientMovement
	if err := r.DB(ctx).Where("id = ?", id).First(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ClientMovement, error) {
	var movements []models.ClientMovement
	if err := r.DB(ctx).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) ListPage(ctx context.Context, clientID uuid.UUID, beforeID int64, limit int) ([]models.ClientMovement, error) {
	var movements []models.ClientMovement
	if err := r.DB(ctx).Where("client_id = ?", clientID).Scopes(repo.BeforeSequence(beforeID, limit)).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) Update(ctx context.Context, movement *models.ClientMovement) error {
	updates := movement.Notes.Columns()
	updates["atm_id"] = movement.ATMID
	updates["amount"] = movement.Amount
	updates["new_balance"] = movement.NewBalance
	updates["reason"] = movement.Reason
	updates["transaction_date"] = movement.TransactionDate
	res := r.DB(ctx).Model(&models.ClientMovement{}).Where("id = ?", movement.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ClientMovement{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
