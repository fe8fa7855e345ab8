package migrate

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const sqliteNotes = `
	ones          INTEGER NOT NULL DEFAULT 0,
	fives         INTEGER NOT NULL DEFAULT 0,
	tens          INTEGER NOT NULL DEFAULT 0,
	twenties      INTEGER NOT NULL DEFAULT 0,
	forties       INTEGER NOT NULL DEFAULT 0,
	fifties       INTEGER NOT NULL DEFAULT 0,
	hundreds      INTEGER NOT NULL DEFAULT 0,
	two_hundreds  INTEGER NOT NULL DEFAULT 0,
	five_hundreds INTEGER NOT NULL DEFAULT 0,
	thousands     INTEGER NOT NULL DEFAULT 0,`

const sqliteNotesNonNegative = `(
		ones >= 0 AND fives >= 0 AND tens >= 0 AND twenties >= 0 AND forties >= 0 AND
		fifties >= 0 AND hundreds >= 0 AND two_hundreds >= 0 AND five_hundreds >= 0 AND thousands >= 0
	)`

// sqliteSchema mirrors the goose migrations for the sqlite driver used in
// tests and local development: same columns, named constraints, checks,
// foreign keys and indexes. Enum columns become TEXT and JSONB becomes TEXT.
// TestSQLiteSchemaMatchesMigrations keeps the two in step.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	code       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT clients_code_key UNIQUE (code)
)`,
	`CREATE TABLE IF NOT EXISTS atms (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	terminal_id TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT atms_terminal_id_key UNIQUE (terminal_id),
	FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT
)`,
	`CREATE INDEX IF NOT EXISTS atms_client_id_idx ON atms (client_id)`,
	`CREATE TABLE IF NOT EXISTS vaults (
	id              INTEGER PRIMARY KEY DEFAULT 1,
	current_balance NUMERIC NOT NULL DEFAULT 0,` + sqliteNotes + `
	version         INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT vaults_balance_non_negative CHECK (current_balance >= 0),
	CONSTRAINT vaults_notes_non_negative CHECK ` + sqliteNotesNonNegative + `
)`,
	`CREATE TABLE IF NOT EXISTS vault_movements (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	vault_id         INTEGER NOT NULL,
	kind             TEXT NOT NULL,
	direction        TEXT NOT NULL,
	amount_in        NUMERIC NOT NULL DEFAULT 0,
	amount_out       NUMERIC NOT NULL DEFAULT 0,
	new_balance      NUMERIC NOT NULL,` + sqliteNotes + `
	client_id        TEXT NULL,
	branch_id        TEXT NULL,
	team_id          TEXT NULL,
	atm_loading_id   TEXT NULL,
	reason           TEXT NOT NULL DEFAULT '',
	transaction_date DATE NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (vault_id) REFERENCES vaults(id) ON DELETE RESTRICT,
	FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT,
	CHECK (amount_in >= 0 AND amount_out >= 0),
	CHECK (amount_in = 0 OR amount_out = 0)
)`,
	`CREATE INDEX IF NOT EXISTS vault_movements_vault_order_idx ON vault_movements (vault_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS vault_movements_atm_loading_idx ON vault_movements (atm_loading_id)`,
	`CREATE TABLE IF NOT EXISTS client_movements (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id        TEXT NOT NULL,
	branch_id        TEXT NULL,
	team_id          TEXT NULL,
	atm_id           TEXT NULL,
	type             TEXT NOT NULL,
	amount           NUMERIC NOT NULL,
	new_balance      NUMERIC NOT NULL,` + sqliteNotes + `
	reason           TEXT NOT NULL DEFAULT '',
	transaction_date DATE NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT,
	FOREIGN KEY (atm_id) REFERENCES atms(id) ON DELETE RESTRICT,
	CHECK (amount > 0),
	CONSTRAINT client_movements_notes_non_negative CHECK ` + sqliteNotesNonNegative + `
)`,
	`CREATE INDEX IF NOT EXISTS client_movements_client_created_idx ON client_movements (client_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS client_movements_client_date_idx ON client_movements (client_id, transaction_date)`,
	`CREATE TABLE IF NOT EXISTS atm_loadings (
	id                 TEXT PRIMARY KEY,
	client_id          TEXT NOT NULL,
	atm_id             TEXT NOT NULL,` + sqliteNotes + `
	total_amount       NUMERIC NOT NULL,
	loading_date       DATE NOT NULL,
	comment            TEXT NOT NULL DEFAULT '',
	client_movement_id INTEGER NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT,
	FOREIGN KEY (atm_id) REFERENCES atms(id) ON DELETE RESTRICT,
	FOREIGN KEY (client_movement_id) REFERENCES client_movements(id) ON DELETE RESTRICT,
	CONSTRAINT atm_loadings_client_movement_key UNIQUE (client_movement_id),
	CHECK (total_amount > 0),
	CONSTRAINT atm_loadings_notes_non_negative CHECK ` + sqliteNotesNonNegative + `
)`,
	`CREATE INDEX IF NOT EXISTS atm_loadings_client_idx ON atm_loadings (client_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS atm_loadings_atm_idx ON atm_loadings (atm_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
	id             TEXT PRIMARY KEY,
	event_type     TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	payload        TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	published_at   DATETIME NULL,
	attempt_count  INTEGER NOT NULL DEFAULT 0,
	last_error     TEXT NULL
)`,
	`CREATE INDEX IF NOT EXISTS outbox_events_unpublished_idx ON outbox_events (created_at) WHERE published_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS outbox_events_published_idx ON outbox_events (published_at) WHERE published_at IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
	id             TEXT PRIMARY KEY,
	event_id       TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	payload_json   TEXT NOT NULL,
	error_reason   TEXT NOT NULL,
	error_message  TEXT NULL,
	attempt_count  INTEGER NOT NULL DEFAULT 0,
	failed_at      DATETIME NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT outbox_dlq_event_id_key UNIQUE (event_id)
)`,
}

// ApplySQLite creates the ledger schema on a sqlite connection and seeds the
// vault of record.
func ApplySQLite(ctx context.Context, conn *gorm.DB, vaultID int64) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if !strings.EqualFold(conn.Dialector.Name(), "sqlite") {
		return fmt.Errorf("sqlite schema requested on %s connection", conn.Dialector.Name())
	}
	db := conn.WithContext(ctx)
	for _, stmt := range sqliteSchema {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	if vaultID <= 0 {
		vaultID = 1
	}
	if err := db.Exec(`INSERT OR IGNORE INTO vaults (id) VALUES (?)`, vaultID).Error; err != nil {
		return fmt.Errorf("seed vault: %w", err)
	}
	return nil
}
