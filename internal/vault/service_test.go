package vault

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/internal/directory"
	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
)

type harness struct {
	conn    *db.Client
	repo    Repository
	svc     *service
	dir     directory.Service
	clients clientledger.Service
	outbox  *outbox.Repository
}

func newHarness(t *testing.T, cfg config.LedgerConfig) harness {
	t.Helper()
	conn := dbtest.Open(t)
	dir, err := directory.NewService(directory.NewRepository(conn.DB()))
	require.NoError(t, err)
	cmRepo := clientledger.NewRepository(conn.DB())
	clientPoster, err := clientledger.NewPoster(cmRepo)
	require.NoError(t, err)
	clients, err := clientledger.NewService(cmRepo, dir)
	require.NoError(t, err)

	repo := NewRepository(conn.DB())
	poster, err := NewPoster(repo, dbtest.VaultID)
	require.NoError(t, err)
	outboxRepo := outbox.NewRepository(conn.DB())
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Tx:      conn,
		Poster:  poster,
		Clients: dir,
		Ledger:  clientPoster,
		Outbox:  outbox.NewService(outboxRepo, logger.Nop()),
		Config:  cfg,
	})
	require.NoError(t, err)
	return harness{conn: conn, repo: repo, svc: svc.(*service), dir: dir, clients: clients, outbox: outboxRepo}
}

func posting(notes denomination.Vector) PostingInput {
	return PostingInput{Amount: notes.WeightedSum(), Notes: notes, OperatorID: "op-1"}
}

func TestReceiveWithdrawUpdatesStateAndHistory(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{ReceiveReason: "deposit", WithdrawReason: "payout"})
	ctx := context.Background()

	received, err := h.svc.Receive(ctx, posting(denomination.Vector{Thousands: 2, Hundreds: 5}))
	require.NoError(t, err)
	assert.True(t, received.NewBalance.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, enums.VaultMovementReceive, received.Movement.Kind)
	assert.Equal(t, "deposit", received.Movement.Reason)
	assert.Nil(t, received.ClientMovement)

	withdrawn, err := h.svc.Withdraw(ctx, posting(denomination.Vector{Hundreds: 3}))
	require.NoError(t, err)
	assert.True(t, withdrawn.NewBalance.Equal(decimal.NewFromInt(2200)))
	assert.Equal(t, denomination.Vector{Thousands: 2, Hundreds: 2}, withdrawn.Notes)
	assert.Equal(t, "payout", withdrawn.Movement.Reason)

	state, err := h.svc.Balance(ctx, dbtest.VaultID)
	require.NoError(t, err)
	assert.True(t, state.CurrentBalance.Equal(decimal.NewFromInt(2200)))
	assert.Equal(t, int64(2), state.Version)

	page, err := h.svc.Movements(ctx, dbtest.VaultID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, withdrawn.Movement.ID, page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	older, err := h.svc.Movements(ctx, dbtest.VaultID, pagination.Params{Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, older.Items, 1)
	assert.Equal(t, received.Movement.ID, older.Items[0].ID)
	assert.Empty(t, older.NextCursor)

	events, err := h.outbox.ListByAggregate(ctx, enums.AggregateVault, "1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventVaultReceived, events[0].EventType)
	assert.Equal(t, enums.EventVaultWithdrawn, events[1].EventType)
}

func TestWithdrawInsufficientLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{})
	ctx := context.Background()

	_, err := h.svc.Receive(ctx, posting(denomination.Vector{Hundreds: 10}))
	require.NoError(t, err)

	_, err = h.svc.Withdraw(ctx, posting(denomination.Vector{Fifties: 2}))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds), "got %v", err)

	_, err = h.svc.Withdraw(ctx, posting(denomination.Vector{Hundreds: 11}))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds), "got %v", err)

	state, err := h.svc.Balance(ctx, dbtest.VaultID)
	require.NoError(t, err)
	assert.Equal(t, denomination.Vector{Hundreds: 10}, state.Notes)
	assert.Equal(t, int64(1), state.Version)

	rows, err := h.repo.ReplayMovements(ctx, dbtest.VaultID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPostingValidation(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{})
	ctx := context.Background()

	cases := map[string]PostingInput{
		"zero amount":    {Amount: decimal.Zero},
		"mismatched sum": {Amount: decimal.NewFromInt(150), Notes: denomination.Vector{Hundreds: 1}},
		"negative notes": {Amount: decimal.NewFromInt(100), Notes: denomination.Vector{Hundreds: 2, Fifties: -2}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Receive(ctx, input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	missing := uuid.New()
	input := posting(denomination.Vector{Hundreds: 1})
	input.ClientID = &missing
	_, err := h.svc.Receive(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = h.svc.Balance(ctx, 42)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestClientAttributedPostings(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{})
	ctx := context.Background()

	client, err := h.dir.CreateClient(ctx, directory.CreateClientInput{Name: "Acme", Code: "ACME"})
	require.NoError(t, err)

	in := posting(denomination.Vector{Thousands: 5})
	in.ClientID = &client.ID
	received, err := h.svc.Receive(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, received.ClientMovement)
	assert.Equal(t, enums.ClientMovementCredit, received.ClientMovement.Type)

	// Vault holds enough, the client does not.
	_, err = h.svc.Receive(ctx, posting(denomination.Vector{Thousands: 5}))
	require.NoError(t, err)
	out := posting(denomination.Vector{Thousands: 6})
	out.ClientID = &client.ID
	_, err = h.svc.Withdraw(ctx, out)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds), "got %v", err)

	state, err := h.svc.Balance(ctx, dbtest.VaultID)
	require.NoError(t, err)
	assert.True(t, state.CurrentBalance.Equal(decimal.NewFromInt(10000)), "vault must roll back with the client debit")

	out = posting(denomination.Vector{Thousands: 2})
	out.ClientID = &client.ID
	withdrawn, err := h.svc.Withdraw(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, enums.ClientMovementDebit, withdrawn.ClientMovement.Type)

	view, err := h.clients.Balance(ctx, client.ID, nil)
	require.NoError(t, err)
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, denomination.Vector{Thousands: 3}, view.Notes)
}

func TestTransactionDateDefaultsToBusinessDay(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{BusinessTimezone: "America/Mexico_City"})
	h.svc.now = func() time.Time { return time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	res, err := h.svc.Receive(ctx, posting(denomination.Vector{Hundreds: 1}))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", res.Movement.TransactionDate.Format("2006-01-02"))

	explicit := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	input := posting(denomination.Vector{Hundreds: 1})
	input.TransactionDate = &explicit
	res, err = h.svc.Receive(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", res.Movement.TransactionDate.Format("2006-01-02"))
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	h := newHarness(t, config.LedgerConfig{})
	ctx := context.Background()

	_, err := h.svc.Receive(ctx, posting(denomination.Vector{Thousands: 10}))
	require.NoError(t, err)

	results := make([]error, 15)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = h.svc.Withdraw(ctx, posting(denomination.Vector{Thousands: 1}))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds), "got %v", err)
	}
	assert.Equal(t, 10, succeeded)

	state, err := h.svc.Balance(ctx, dbtest.VaultID)
	require.NoError(t, err)
	assert.True(t, state.CurrentBalance.IsZero())
	assertReplayMatches(t, h, state)
}

func assertReplayMatches(t *testing.T, h harness, state *models.Vault) {
	t.Helper()
	rows, err := h.repo.ReplayMovements(context.Background(), state.ID)
	require.NoError(t, err)

	running := decimal.Zero
	var notes denomination.Vector
	for _, m := range rows {
		running = running.Add(m.SignedAmount())
		notes = notes.Add(m.SignedNotes())
		require.True(t, m.NewBalance.Equal(running), "movement %d new_balance %s, running %s", m.ID, m.NewBalance, running)
		require.True(t, notes.IsNonNegative(), "notes went negative at movement %d", m.ID)
	}
	require.True(t, running.Equal(state.CurrentBalance))
	require.Equal(t, state.Notes, notes)
}
