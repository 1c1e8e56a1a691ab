package rollups

import "errors"

// Action is what the user may do with an output right now.
type Action string

const (
	ActionNone            Action = ""
	ActionNotReady        Action = "Not Ready"
	ActionAlreadyExecuted Action = "Already Executed"
	ActionExecute         Action = "Execute"
	ActionValidate        Action = "Validate"
)

var (
	// ErrNotReady means the output's epoch has not been accepted on the base layer yet.
	ErrNotReady = errors.New("output not ready: epoch not accepted yet")
	// ErrAlreadyExecuted means the voucher was already executed.
	ErrAlreadyExecuted = errors.New("output already executed")
	// ErrNotActionable means the output type has no base-layer action.
	ErrNotActionable = errors.New("output has no available action")
)

// ActionFor decides the action for an output in epoch given the last
// accepted epoch index.
func ActionFor(t OutputType, epoch, lastAccepted uint64, executed bool) Action {
	ready := epoch <= lastAccepted
	switch t {
	case TypeVoucher, TypeDelegateCallVoucher:
		switch {
		case !ready:
			return ActionNotReady
		case executed:
			return ActionAlreadyExecuted
		default:
			return ActionExecute
		}
	case TypeNotice:
		if !ready {
			return ActionNotReady
		}
		return ActionValidate
	}
	return ActionNone
}

// Enabled reports whether the action can be triggered.
func (a Action) Enabled() bool {
	return a == ActionExecute || a == ActionValidate
}

// Err explains why a disabled action cannot run, or nil when it can.
func (a Action) Err() error {
	switch a {
	case ActionExecute, ActionValidate:
		return nil
	case ActionNotReady:
		return ErrNotReady
	case ActionAlreadyExecuted:
		return ErrAlreadyExecuted
	}
	return ErrNotActionable
}
