package clientledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
)

type clientLookup interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// Service exposes read-side projections of client positions.
type Service interface {
	Balance(ctx context.Context, clientID uuid.UUID, at *time.Time) (*BalanceView, error)
	History(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*pagination.Page[models.ClientMovement], error)
}

// BalanceView is a client position as of At (nil means "now").
type BalanceView struct {
	ClientID uuid.UUID  `json:"clientId"`
	At       *time.Time `json:"at,omitempty"`
	Position
}

type service struct {
	repo    Repository
	clients clientLookup
}

// NewService wires the client ledger read service.
func NewService(repo Repository, clients clientLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client movement repository required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	return &service{repo: repo, clients: clients}, nil
}

func (s *service) Balance(ctx context.Context, clientID uuid.UUID, at *time.Time) (*BalanceView, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	movements, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dbpkg.MapError(err, "load client movements")
	}
	return &BalanceView{ClientID: clientID, At: at, Position: Fold(movements, at)}, nil
}

func (s *service) History(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*pagination.Page[models.ClientMovement], error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	beforeID, err := pagination.ParseSequence(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListPage(ctx, clientID, beforeID, limit+1)
	if err != nil {
		return nil, dbpkg.MapError(err, "list client movements")
	}
	return pagination.Cut(rows, limit, func(m models.ClientMovement) string {
		return pagination.EncodeSequence(m.ID)
	}), nil
}
