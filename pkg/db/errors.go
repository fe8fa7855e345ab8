package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// Postgres or sqlite. A non-empty constraintName must also match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if sqlErr := pkgerrors.SQLErrorFrom(err); sqlErr != nil {
		if sqlErr.State != pkgerrors.SQLStateUniqueViolation {
			return false
		}
		return constraintName == "" || sqlErr.Constraint == constraintName || strings.Contains(sqlErr.Message, constraintName)
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err came from a CHECK constraint, such as
// the non-negative note counts on vaults.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlErr := pkgerrors.SQLErrorFrom(err); sqlErr != nil {
		return sqlErr.State == pkgerrors.SQLStateCheckViolation
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// MapError converts a storage error into a typed error. Typed errors pass
// through untouched.
//
//	record not found   -> NOT_FOUND
//	unique violation   -> CONFLICT
//	check violation    -> CONSISTENCY_ERROR
//	anything else      -> DEPENDENCY_ERROR
func MapError(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	switch {
	case IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	case IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConsistency, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
