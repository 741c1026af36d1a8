package classify

import "errors"

var (
	// ErrLookupFailed indicates a previous-output lookup failed. During
	// classification this degrades the affected input to unresolved; it
	// never aborts a scan.
	ErrLookupFailed = errors.New("classify: previous output lookup failed")
)
