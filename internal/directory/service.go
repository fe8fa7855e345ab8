package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// Service manages the clients and ATMs the ledger refers to.
type Service interface {
	CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	CreateATM(ctx context.Context, input CreateATMInput) (*models.ATM, error)
	GetATM(ctx context.Context, id uuid.UUID) (*models.ATM, error)
	ListATMs(ctx context.Context, clientID uuid.UUID) ([]models.ATM, error)
	// OwnedATM returns the ATM only when it belongs to clientID.
	OwnedATM(ctx context.Context, clientID, atmID uuid.UUID) (*models.ATM, error)
}

type CreateClientInput struct {
	Name string
	Code string
}

type CreateATMInput struct {
	ClientID   uuid.UUID
	TerminalID string
	Location   string
}

type service struct {
	repo Repository
}

// NewService wires a directory service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client code required")
	}
	client := &models.Client{ID: uuid.New(), Name: name, Code: code}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "client code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return client, nil
}

func (s *service) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	client, err := s.repo.FindClient(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "client not found", "load client")
	}
	return client, nil
}

func (s *service) ListClients(ctx context.Context) ([]models.Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	return clients, nil
}

func (s *service) CreateATM(ctx context.Context, input CreateATMInput) (*models.ATM, error) {
	terminal := strings.TrimSpace(input.TerminalID)
	if terminal == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	if _, err := s.GetClient(ctx, input.ClientID); err != nil {
		return nil, err
	}
	atm := &models.ATM{
		ID:         uuid.New(),
		ClientID:   input.ClientID,
		TerminalID: terminal,
		Location:   strings.TrimSpace(input.Location),
	}
	if err := s.repo.CreateATM(ctx, atm); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "terminal id already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create atm")
	}
	return atm, nil
}

func (s *service) GetATM(ctx context.Context, id uuid.UUID) (*models.ATM, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "atm id required")
	}
	atm, err := s.repo.FindATM(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "atm not found", "load atm")
	}
	return atm, nil
}

func (s *service) ListATMs(ctx context.Context, clientID uuid.UUID) ([]models.ATM, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	atms, err := s.repo.ListATMs(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list atms")
	}
	return atms, nil
}

func (s *service) OwnedATM(ctx context.Context, clientID, atmID uuid.UUID) (*models.ATM, error) {
	atm, err := s.GetATM(ctx, atmID)
	if err != nil {
		return nil, err
	}
	if atm.ClientID != clientID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "atm does not belong to client").
			WithDetails(map[string]any{"atmId": atmID.String(), "clientId": clientID.String()})
	}
	return atm, nil
}

func notFoundOr(err error, notFound, dependency string) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependency)
}
