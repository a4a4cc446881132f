package merger

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/typemerge/internal/model"
)

// ErrSelectionCancelled reports that the operator dismissed a selection
// prompt. The run ends cleanly with the document untouched.
var ErrSelectionCancelled = errors.New("selection cancelled")

// InvalidPlanError reports a merge plan that cannot be executed. It is
// always raised before any transaction opens.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid merge plan: %s", e.Reason)
}

// IsInvalidPlan reports whether err is (or wraps) an InvalidPlanError.
func IsInvalidPlan(err error) bool {
	var planErr *InvalidPlanError
	return errors.As(err, &planErr)
}

// ProbeError reports a failed linked-instance probe. Op names the step
// that failed: "begin", "cascade" or "rollback". A rollback failure
// means the document can no longer be assumed unchanged, so it is fatal
// like the others.
type ProbeError struct {
	TypeID model.ID
	Op     string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe of type %s failed during %s: %v", e.TypeID, e.Op, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// IsProbeFailure reports whether err is (or wraps) a ProbeError.
func IsProbeFailure(err error) bool {
	var probeErr *ProbeError
	return errors.As(err, &probeErr)
}

// CommitError reports a begin or commit failure on one of the run's
// scopes. Unlike per-instance reassignment failures these are fatal.
type CommitError struct {
	Scope string
	Op    string
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s of %q failed: %v", e.Op, e.Scope, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitFailure reports whether err is (or wraps) a CommitError.
func IsCommitFailure(err error) bool {
	var commitErr *CommitError
	return errors.As(err, &commitErr)
}
