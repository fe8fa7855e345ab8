package atmloading

import (
	"github.com/angelmondragon/cashvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

// unitOfWork walks one loading operation through validated, reserved and
// committed. Any failure moves it to aborted and tags the error with the
// phase that was being entered.
type unitOfWork struct {
	phase enums.LoadingPhase
}

func (u *unitOfWork) Phase() enums.LoadingPhase {
	return u.phase
}

func (u *unitOfWork) run(next enums.LoadingPhase, fn func() error) error {
	if !u.phase.CanTransition(next) {
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid loading phase transition").
			WithDetails(map[string]any{"from": string(u.phase), "to": string(next)})
	}
	if err := fn(); err != nil {
		u.phase = enums.LoadingPhaseAborted
		return withStep(err, next)
	}
	u.phase = next
	return nil
}

func withStep(err error, step enums.LoadingPhase) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "atm loading failed")
	}
	return typed.WithStep(string(step))
}
