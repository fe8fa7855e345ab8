package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/repo"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
)

// Repository persists clients and their ATMs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateClient(ctx context.Context, client *models.Client) error
	FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	CreateATM(ctx context.Context, atm *models.ATM) error
	FindATM(ctx context.Context, id uuid.UUID) (*models.ATM, error)
	ListATMs(ctx context.Context, clientID uuid.UUID) ([]models.ATM, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateClient(ctx context.Context, client *models.Client) error {
	return r.DB(ctx).Create(client).Error
}

func (r *repository) FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.DB(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repository) CreateATM(ctx context.Context, atm *models.ATM) error {
	return r.DB(ctx).Create(atm).Error
}

func (r *repository) FindATM(ctx context.Context, id uuid.UUID) (*models.ATM, error) {
	var atm models.ATM
	if err := r.DB(ctx).Where("id = ?", id).First(&atm).Error; err != nil {
		return nil, err
	}
	return &atm, nil
}

func (r *repository) ListATMs(ctx context.Context, clientID uuid.UUID) ([]models.ATM, error) {
	var atms []models.ATM
	if err := r.DB(ctx).
		Where("client_id = ?", clientID).
		Order("terminal_id ASC").
		Find(&atms).Error; err != nil {
		return nil, err
	}
	return atms, nil
}
