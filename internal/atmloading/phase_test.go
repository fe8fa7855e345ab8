package atmloading

import (
	"errors"
	"testing"

	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

func TestUnitOfWorkHappyPath(t *testing.T) {
	var u unitOfWork
	for _, next := range []enums.LoadingPhase{enums.LoadingPhaseValidated, enums.LoadingPhaseReserved, enums.LoadingPhaseCommitted} {
		if err := u.run(next, func() error { return nil }); err != nil {
			t.Fatalf("run %s: %v", next, err)
		}
	}
	if u.Phase() != enums.LoadingPhaseCommitted {
		t.Fatalf("expected committed, got %s", u.Phase())
	}
	if err := u.run(enums.LoadingPhaseReserved, func() error { return nil }); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected transition error after commit, got %v", err)
	}
}

func TestUnitOfWorkAbortTagsStep(t *testing.T) {
	var u unitOfWork
	if err := u.run(enums.LoadingPhaseValidated, func() error { return nil }); err != nil {
		t.Fatalf("validate: %v", err)
	}
	err := u.run(enums.LoadingPhaseReserved, func() error {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "short").WithDetails(map[string]any{"scope": "vault"})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if typed.Step() != "reserved" {
		t.Fatalf("expected step reserved, got %q", typed.Step())
	}
	if details := typed.Details().(map[string]any); details["scope"] != "vault" {
		t.Fatalf("existing details should survive, got %v", details)
	}
	if u.Phase() != enums.LoadingPhaseAborted {
		t.Fatalf("expected aborted, got %s", u.Phase())
	}
	if err := u.run(enums.LoadingPhaseCommitted, func() error { return nil }); err == nil {
		t.Fatalf("aborted unit must not commit")
	}
}

func TestUnitOfWorkWrapsUntypedErrors(t *testing.T) {
	var u unitOfWork
	err := u.run(enums.LoadingPhaseValidated, func() error { return errors.New("db down") })
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if pkgerrors.As(err).Step() != "validated" {
		t.Fatalf("expected validated step")
	}
}
