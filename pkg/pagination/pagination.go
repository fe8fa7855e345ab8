// Package pagination implements the opaque keyset cursors used by every
// newest-first listing.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	sequencePrefix = "seq:"
)

var errCursorFormat = errors.New("invalid cursor format")

// Params are the raw limit and cursor taken from a request.
type Params struct {
	Limit  int
	Cursor string
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Cursor keys rows ordered by (created_at, id) descending.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit for
// non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Cut turns a query result fetched with limit+1 rows into a page. The extra
// row only signals that another page exists; the cursor points at the last
// row kept.
func Cut[T any](rows []T, limit int, cursorOf func(T) string) *Page[T] {
	page := &Page[T]{Items: rows}
	if page.Items == nil {
		page.Items = []T{}
	}
	if limit > 0 && len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = cursorOf(rows[limit-1])
	}
	return page
}

func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor returns nil for an empty value.
func ParseCursor(value string) (*Cursor, error) {
	decoded, ok, err := decode(value)
	if err != nil || !ok {
		return nil, err
	}
	stamp, rawID, found := strings.Cut(decoded, "|")
	if !found {
		return nil, errCursorFormat
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// EncodeSequence builds a cursor for append-only logs keyed by a bigserial id.
func EncodeSequence(id int64) string {
	return base64.URLEncoding.EncodeToString([]byte(sequencePrefix + strconv.FormatInt(id, 10)))
}

// ParseSequence returns 0 for an empty value, meaning start from the newest
// row.
func ParseSequence(value string) (int64, error) {
	decoded, ok, err := decode(value)
	if err != nil || !ok {
		return 0, err
	}
	raw, found := strings.CutPrefix(decoded, sequencePrefix)
	if !found {
		return 0, errCursorFormat
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid cursor id")
	}
	return id, nil
}

func decode(value string) (string, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false, nil
	}
	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return "", false, fmt.Errorf("decode cursor: %w", err)
	}
	return string(raw), true, nil
}
