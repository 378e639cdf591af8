package rotate

import "fmt"

// Precondition failure reasons.
const (
	ReasonLocked = "locked"
	ReasonDirty  = "dirty"
	ReasonQuorum = "quorum"
)

// PreconditionError reports a check that failed before anything was modified.
type PreconditionError struct {
	Reason string
	Detail string
}

func (e *PreconditionError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonLocked:
		msg = "repository is locked, run `git crypt unlock` first"
	case ReasonDirty:
		msg = "working tree has uncommitted changes"
	case ReasonQuorum:
		msg = "not enough trusted identities in the local keyring"
	default:
		msg = "precondition failed: " + e.Reason
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// StepError reports a failed step of the main sequence together with the last
// state reached, so the caller can recover from the commits left behind.
type StepError struct {
	Reached State
	Step    string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s but %s failed: %v", e.Reached.reached(), e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
