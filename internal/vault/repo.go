package vault

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cashvault-backend/internal/repo"
	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Repository persists the vault row and its movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Ensure(ctx context.Context, id int64) error
	Find(ctx context.Context, id int64) (*models.Vault, error)
	// Lock reads the vault row holding a row lock until the transaction ends.
	Lock(ctx context.Context, id int64) (*models.Vault, error)
	// SaveState writes next when the stored version still equals
	// expectedVersion and bumps next.Version.
	SaveState(ctx context.Context, next *models.Vault, expectedVersion int64) error
	InsertMovement(ctx context.Context, movement *models.VaultMovement) error
	ListMovements(ctx context.Context, vaultID, beforeID int64, limit int) ([]models.VaultMovement, error)
	// ReplayMovements returns every movement in (created_at, id) order.
	ReplayMovements(ctx context.Context, vaultID int64) ([]models.VaultMovement, error)
	ListByLoading(ctx context.Context, loadingID uuid.UUID) ([]models.VaultMovement, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a vault repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Ensure(ctx context.Context, id int64) error {
	row := models.Vault{ID: id}
	return r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *repository) Find(ctx context.Context, id int64) (*models.Vault, error) {
	var v models.Vault
	if err := r.DB(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) Lock(ctx context.Context, id int64) (*models.Vault, error) {
	var v models.Vault
	if err := dbpkg.ForUpdate(r.DB(ctx)).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) SaveState(ctx context.Context, next *models.Vault, expectedVersion int64) error {
	updates := next.Notes.Columns()
	updates["current_balance"] = next.CurrentBalance
	updates["version"] = expectedVersion + 1
	updates["updated_at"] = time.Now().UTC()
	res := r.DB(ctx).Model(&models.Vault{}).
		Where("id = ? AND version = ?", next.ID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "vault was modified concurrently").
			WithDetails(map[string]any{"vaultId": next.ID, "expectedVersion": expectedVersion})
	}
	next.Version = expectedVersion + 1
	return nil
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.VaultMovement) error {
	return r.DB(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, vaultID, beforeID int64, limit int) ([]models.VaultMovement, error) {
	var rows []models.VaultMovement
	if err := r.DB(ctx).Where("vault_id = ?", vaultID).Scopes(repo.BeforeSequence(beforeID, limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ReplayMovements(ctx context.Context, vaultID int64) ([]models.VaultMovement, error) {
	var rows []models.VaultMovement
	if err := r.DB(ctx).
		Where("vault_id = ?", vaultID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByLoading(ctx context.Context, loadingID uuid.UUID) ([]models.VaultMovement, error) {
	var rows []models.VaultMovement
	if err := r.DB(ctx).
		Where("atm_loading_id = ?", loadingID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
