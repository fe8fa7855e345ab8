package enums

// LoadingPhase tracks how far an ATM loading unit of work progressed.
type LoadingPhase string

const (
	LoadingPhaseValidated LoadingPhase = "validated"
	LoadingPhaseReserved  LoadingPhase = "reserved"
	LoadingPhaseCommitted LoadingPhase = "committed"
	LoadingPhaseAborted   LoadingPhase = "aborted"
)

// CanTransition reports whether next may follow p.
func (p LoadingPhase) CanTransition(next LoadingPhase) bool {
	switch p {
	case "":
		return next == LoadingPhaseValidated || next == LoadingPhaseAborted
	case LoadingPhaseValidated:
		return next == LoadingPhaseReserved || next == LoadingPhaseAborted
	case LoadingPhaseReserved:
		return next == LoadingPhaseCommitted || next == LoadingPhaseAborted
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (p LoadingPhase) IsTerminal() bool {
	return p == LoadingPhaseCommitted || p == LoadingPhaseAborted
}
