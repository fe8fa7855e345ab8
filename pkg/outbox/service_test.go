package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
)

func TestEmitStoresEnvelope(t *testing.T) {
	client := dbtest.Open(t)
	repo := outbox.NewRepository(client.DB())
	svc := outbox.NewService(repo, logger.Nop())
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVaultReceived,
			AggregateType: enums.AggregateVault,
			AggregateID:   "1",
			Actor:         outbox.OperatorActor("op-9"),
			Data:          map[string]any{"movementId": 7},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateVault, "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "op-9", envelope.Actor.OperatorID)
	assert.JSONEq(t, `{"movementId":7}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	client := dbtest.Open(t)
	repo := outbox.NewRepository(client.DB())
	svc := outbox.NewService(repo, nil)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventATMLoadingDeleted,
			AggregateType: enums.AggregateATMLoading,
			AggregateID:   uuid.NewString(),
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return errors.New("ledger write failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitValidatesInput(t *testing.T) {
	client := dbtest.Open(t)
	svc := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	ctx := context.Background()

	require.Error(t, svc.Emit(ctx, nil, outbox.DomainEvent{}))
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, outbox.DomainEvent{EventType: "nope", AggregateType: enums.AggregateVault, AggregateID: "1"})
	})
	require.Error(t, err)
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, outbox.DomainEvent{EventType: enums.EventVaultWithdrawn, AggregateType: enums.AggregateVault})
	})
	require.Error(t, err)
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVaultReceived,
			AggregateType: enums.AggregateATMLoading,
			AggregateID:   "1",
			Data:          map[string]any{},
		})
	})
	require.ErrorContains(t, err, "does not belong")
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := outbox.NewRepository(client.DB())
	dlq := outbox.NewDLQRepository(client.DB())
	ctx := context.Background()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		row := models.OutboxEvent{
			ID:            ids[i],
			EventType:     enums.EventVaultReceived,
			AggregateType: enums.AggregateVault,
			AggregateID:   "1",
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Insert(client.DB(), row))
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, ids[0], rows[0].ID)

		require.NoError(t, repo.MarkPublishedTx(tx, ids[0]))
		require.NoError(t, repo.MarkFailedTx(tx, ids[1], errors.New("broker down")))
		require.NoError(t, repo.MarkTerminalTx(tx, ids[2], errors.New("bad payload"), 3))
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       ids[2],
			EventType:     enums.EventVaultReceived,
			AggregateType: enums.AggregateVault,
			AggregateID:   "1",
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonNonRetryable,
			FailedAt:      time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, ids[1], rows[0].ID)
		assert.Equal(t, 1, rows[0].AttemptCount)
		require.NotNil(t, rows[0].LastError)
		assert.Equal(t, "broker down", *rows[0].LastError)
		return nil
	})
	require.NoError(t, err)

	parked, err := dlq.FindByEventID(ctx, ids[2])
	require.NoError(t, err)
	require.NotNil(t, parked)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, parked.ErrorReason)

	missing, err := dlq.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
