package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
)

func seedEvent(t *testing.T, tx *gorm.DB, repo *outbox.Repository) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventVaultWithdrawn,
		AggregateType: enums.AggregateVault,
		AggregateID:   "1",
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  10,
	}
	require.NoError(t, repo.Insert(tx, event))
	return event
}

func TestDLQInsertIgnoresDuplicateAndTruncates(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	repo := outbox.NewRepository(client.DB())
	dlq := outbox.NewDLQRepository(client.DB())

	long := errors.New(strings.Repeat("€", 600))
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		event := seedEvent(t, tx, repo)
		entry := event.DeadLetter(enums.OutboxDLQReasonMaxAttempts, long, time.Now())
		if err := dlq.InsertTx(tx, entry); err != nil {
			return err
		}
		return dlq.InsertTx(tx, event.DeadLetter(enums.OutboxDLQReasonNonRetryable, errors.New("again"), time.Now()))
	})
	require.NoError(t, err)

	rows, err := dlq.ListSince(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, rows[0].ErrorReason)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.LessOrEqual(t, len(*rows[0].ErrorMessage), 1024)
	assert.True(t, utf8.ValidString(*rows[0].ErrorMessage))
}

func TestDLQRequeueResetsPendingRow(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	repo := outbox.NewRepository(client.DB())
	dlq := outbox.NewDLQRepository(client.DB())

	var event models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		event = seedEvent(t, tx, repo)
		return dlq.InsertTx(tx, event.DeadLetter(enums.OutboxDLQReasonMaxAttempts, errors.New("broker down"), time.Now()))
	}))

	require.NoError(t, dlq.Requeue(ctx, event.ID))

	found, err := dlq.FindByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateVault, "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].AttemptCount)
	assert.Nil(t, rows[0].LastError)
}

func TestDLQRequeueRecreatesPrunedRow(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	dlq := outbox.NewDLQRepository(client.DB())

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventATMLoadingCreated,
		AggregateType: enums.AggregateATMLoading,
		AggregateID:   uuid.NewString(),
		Payload:       json.RawMessage(`{"version":1}`),
	}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, event.DeadLetter(enums.OutboxDLQReasonNonRetryable, nil, time.Now()))
	}))

	require.NoError(t, dlq.Requeue(ctx, event.ID))

	rows, err := outbox.NewRepository(client.DB()).ListByAggregate(ctx, enums.AggregateATMLoading, event.AggregateID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, event.ID, rows[0].ID)
	assert.JSONEq(t, `{"version":1}`, string(rows[0].Payload))
}

func TestDLQRequeueUnknownEvent(t *testing.T) {
	client := dbtest.Open(t)
	err := outbox.NewDLQRepository(client.DB()).Requeue(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
