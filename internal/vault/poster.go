package vault

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Poster appends vault movements inside a caller-owned transaction.
type Poster struct {
	repo    Repository
	vaultID int64
}

// NewPoster builds a Poster for the vault of record.
func NewPoster(repo Repository, vaultID int64) (*Poster, error) {
	if repo == nil {
		return nil, fmt.Errorf("vault repository required")
	}
	if vaultID <= 0 {
		return nil, fmt.Errorf("vault id required")
	}
	return &Poster{repo: repo, vaultID: vaultID}, nil
}

// VaultID returns the vault of record.
func (p *Poster) VaultID() int64 {
	return p.vaultID
}

// Lock takes the vault row lock for the rest of tx.
func (p *Poster) Lock(ctx context.Context, tx *gorm.DB) (*models.Vault, error) {
	state, err := p.repo.WithTx(tx).Lock(ctx, p.vaultID)
	if err != nil {
		return nil, dbpkg.MapError(err, "vault not found")
	}
	return state, nil
}

// Post applies m to the locked state, persists the new state with a version
// check and appends m. On success locked holds the new state and m carries
// its id and new balance.
func (p *Poster) Post(ctx context.Context, tx *gorm.DB, locked *models.Vault, m *models.VaultMovement) error {
	if locked == nil || m == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "vault posting requires locked state")
	}
	next, err := Apply(*locked, *m)
	if err != nil {
		return err
	}
	repo := p.repo.WithTx(tx)
	if err := repo.SaveState(ctx, &next, locked.Version); err != nil {
		return dbpkg.MapError(err, "save vault state")
	}
	m.VaultID = locked.ID
	m.NewBalance = next.CurrentBalance
	if err := repo.InsertMovement(ctx, m); err != nil {
		return dbpkg.MapError(err, "insert vault movement")
	}
	*locked = next
	return nil
}
