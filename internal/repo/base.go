// Package repo holds the connection plumbing shared by the ledger
// repositories.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
)

// Base is embedded by every repository. Repositories rebuilt through WithTx
// embed a Base over the transaction handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds ctx to the connection. A nil ctx returns it unchanged.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

func (b Base) Raw() *gorm.DB {
	return b.db
}

// BeforeSequence scopes an append-only log to rows older than beforeID,
// newest first. A zero beforeID starts at the newest row.
func BeforeSequence(beforeID int64, limit int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if beforeID > 0 {
			q = q.Where("id < ?", beforeID)
		}
		return q.Order("id DESC").Limit(limit)
	}
}

// BeforeCursor scopes a uuid-keyed table to rows strictly after cursor in
// (created_at, id) descending order.
func BeforeCursor(cursor *pagination.Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if cursor != nil {
			q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return q.Order("created_at DESC").Order("id DESC").Limit(limit)
	}
}
