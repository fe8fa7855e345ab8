package cron

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/internal/ledger"
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/metrics"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox/payloads"
)

const reconciliationActor = "cron-worker"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reconciler interface {
	Check(ctx context.Context, vaultID int64) (*ledger.Report, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ReconciliationJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Reconciler reconciler
	Outbox     outboxPublisher
	Metrics    *metrics.LedgerMetrics
	VaultID    int64
}

// NewReconciliationJob replays the vault history each cycle. Drift is
// reported through the drift gauge and a vault_drift_detected event; it
// does not fail the job.
func NewReconciliationJob(params ReconciliationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.VaultID <= 0 {
		return nil, fmt.Errorf("vault id required")
	}
	return &reconciliationJob{
		logg:       params.Logger,
		db:         params.DB,
		reconciler: params.Reconciler,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		vaultID:    params.VaultID,
	}, nil
}

type reconciliationJob struct {
	logg       *logger.Logger
	db         txRunner
	reconciler reconciler
	outbox     outboxPublisher
	metrics    *metrics.LedgerMetrics
	vaultID    int64
}

// ReconciliationJobName labels the nightly vault replay.
const ReconciliationJobName = "vault-reconciliation"

func (j *reconciliationJob) Name() string { return ReconciliationJobName }

func (j *reconciliationJob) Run(ctx context.Context) error {
	report, err := j.reconciler.Check(ctx, j.vaultID)
	if err != nil {
		return fmt.Errorf("vault reconciliation: %w", err)
	}
	j.metrics.SetDrift(report.BalanceDrift)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"vault_id":       report.VaultID,
		"movement_count": report.MovementCount,
		"balance_drift":  report.BalanceDrift.String(),
		"chain_breaks":   len(report.ChainBreaks),
	})
	if report.Consistent {
		j.logg.Info(logCtx, "vault reconciled")
		return nil
	}

	j.logg.Warn(j.logg.WithField(logCtx, "issues", report.Err().Error()), "vault drift detected")
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVaultDriftDetected,
			AggregateType: enums.AggregateVault,
			AggregateID:   strconv.FormatInt(report.VaultID, 10),
			Actor:         outbox.ServiceActor(reconciliationActor),
			Data: payloads.VaultDriftDetectedEvent{
				VaultID:       report.VaultID,
				BalanceDrift:  report.BalanceDrift,
				VectorDrift:   report.VectorDrift,
				ChainBreaks:   len(report.ChainBreaks),
				MovementCount: report.MovementCount,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("emit drift event: %w", err)
	}
	return nil
}
