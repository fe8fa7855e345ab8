package certificates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/types"
)

type clientLookup interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type movementReader interface {
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ClientMovement, error)
}

// Service produces balance certificates.
type Service interface {
	Certificate(ctx context.Context, clientID uuid.UUID, day types.Date) (*Certificate, error)
}

type service struct {
	clients   clientLookup
	movements movementReader
}

// NewService wires the certificate service.
func NewService(clients clientLookup, movements movementReader) (Service, error) {
	if clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	if movements == nil {
		return nil, fmt.Errorf("movement reader required")
	}
	return &service{clients: clients, movements: movements}, nil
}

func (s *service) Certificate(ctx context.Context, clientID uuid.UUID, day types.Date) (*Certificate, error) {
	if day.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificate date required")
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dbpkg.MapError(err, "load client movements")
	}
	cert := Generate(*client, movements, day)
	return &cert, nil
}
