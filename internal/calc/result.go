package calc

import (
	"fmt"

	"voxelnav/internal/pathing"
)

// ResultStatus describes how a search ended.
type ResultStatus uint8

const (
	// ResultSuccess means the goal itself was reached.
	ResultSuccess ResultStatus = iota
	// ResultPartial means time ran out but a best-effort path toward the
	// goal is available.
	ResultPartial
	// ResultFailure means no useful path was found before the failure
	// timeout.
	ResultFailure
	// ResultCancellation means the search was cooperatively cancelled.
	// Not an error; a partial path may still be attached.
	ResultCancellation
	// ResultException means the search aborted on an unexpected panic
	// inside action evaluation.
	ResultException
)

func (s ResultStatus) String() string {
	switch s {
	case ResultSuccess:
		return "success"
	case ResultPartial:
		return "partial"
	case ResultFailure:
		return "failure"
	case ResultCancellation:
		return "cancellation"
	case ResultException:
		return "exception"
	default:
		return fmt.Sprintf("result(%d)", uint8(s))
	}
}

// Result is the outcome of one search invocation. Path is nil unless the
// status says otherwise; on ResultPartial and sometimes ResultCancellation
// it holds the best progress found before the stop.
type Result struct {
	Status ResultStatus
	Path   *pathing.Path
}
