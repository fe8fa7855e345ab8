package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLState values the ledger reacts to.
const (
	SQLStateUniqueViolation      = "23505"
	SQLStateForeignKeyViolation  = "23503"
	SQLStateCheckViolation       = "23514"
	SQLStateSerializationFailure = "40001"
	SQLStateDeadlockDetected     = "40P01"
)

// SQLError is the driver-neutral view of a Postgres error.
type SQLError struct {
	State      string `json:"state"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Transient reports whether retrying the transaction may succeed.
func (s *SQLError) Transient() bool {
	if s == nil {
		return false
	}
	return s.State == SQLStateSerializationFailure || s.State == SQLStateDeadlockDetected
}

// SQLErrorFrom extracts the first pgx or lib/pq error found in the chain.
func SQLErrorFrom(err error) *SQLError {
	if err == nil {
		return nil
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &SQLError{
			State:      pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &SQLError{
			State:      string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// ErrorDump flattens an error chain for logging.
type ErrorDump struct {
	TopMessage string    `json:"top_message"`
	Code       Code      `json:"code,omitempty"`
	Step       string    `json:"step,omitempty"`
	Chain      []string  `json:"chain,omitempty"`
	SQL        *SQLError `json:"sql,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), SQL: SQLErrorFrom(err)}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Step = te.Step()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// Fields renders the dump as log fields, leaving out empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.Step != "" {
		fields["step"] = d.Step
	}
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	if d.SQL != nil {
		fields["pg_code"] = d.SQL.State
		for key, value := range map[string]string{
			"pg_constraint": d.SQL.Constraint,
			"pg_table":      d.SQL.Table,
			"pg_column":     d.SQL.Column,
			"pg_detail":     d.SQL.Detail,
			"pg_message":    d.SQL.Message,
		} {
			if value != "" {
				fields[key] = value
			}
		}
	}
	return fields
}
