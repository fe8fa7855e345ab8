package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// DLQRepository stores events the publisher will not retry.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx records entry. A second dead-letter for the same event is ignored.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateUTF8(*entry.ErrorMessage, maxLastErrorLen)
		entry.ErrorMessage = &msg
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&entry).Error
}

// FindByEventID returns nil without error when the event never dead-lettered.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if dbpkg.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListSince returns dead letters that failed at or after since, newest first.
func (r *DLQRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).
		Where("failed_at >= ?", since.UTC()).
		Order("failed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Requeue hands a dead-lettered event back to the publisher with a fresh
// attempt budget and removes the DLQ row. If retention already pruned the
// outbox row it is recreated from the stored payload.
func (r *DLQRepository) Requeue(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.OutboxDLQ
		if err := tx.Where("event_id = ?", eventID).First(&entry).Error; err != nil {
			return dbpkg.MapError(err, "dead letter not found")
		}

		res := tx.Model(&models.OutboxEvent{}).
			Where("id = ? AND published_at IS NULL", eventID).
			Updates(map[string]any{"attempt_count": 0, "last_error": nil})
		if res.Error != nil {
			return dbpkg.MapError(res.Error, "reset outbox event")
		}
		if res.RowsAffected == 0 {
			var published int64
			if err := tx.Model(&models.OutboxEvent{}).Where("id = ?", eventID).Count(&published).Error; err != nil {
				return dbpkg.MapError(err, "load outbox event")
			}
			if published > 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "event already published")
			}
			revived := entry.Revive()
			if err := tx.Create(&revived).Error; err != nil {
				return dbpkg.MapError(err, "recreate outbox event")
			}
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return dbpkg.MapError(err, "delete dead letter")
		}
		return nil
	})
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
