package occurrence

import (
	"errors"
	"fmt"

	"github.com/planday/planday/internal/domain/model"
)

// Validation errors, rejected before any write.
var (
	ErrNotRecurring     = errors.New("occurrence: task is not a recurring parent")
	ErrNotAnOccurrence  = errors.New("occurrence: date is not an occurrence of the rule")
	ErrNotAfterComplete = errors.New("occurrence: rule is not afterCompletion")
	ErrNoSource         = errors.New("occurrence: neither parent nor pattern given")
)

// ConsistencyError reports a failed compensation: an instance was created
// but the exception write failed, and the compensating delete failed too.
// The two records are known to disagree and need manual correction; this
// error is never swallowed.
type ConsistencyError struct {
	TaskID      model.TaskID
	Cause       error // the failure that triggered compensation
	RollbackErr error // the failure of the compensating delete
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("occurrence: instance %s needs manual attention: exception write failed (%v) and rollback delete failed (%v)",
		e.TaskID, e.Cause, e.RollbackErr)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Cause
}
