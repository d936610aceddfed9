package patient

import "fmt"

// ResolutionError reports that a locator could not be turned into a
// Patient. The driver records it as a failed step result for every
// enabled stage and moves on; the entity is never handed to a stage.
type ResolutionError struct {
	Locator string
	Reason  string
	Err     error // underlying error, optional
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.Locator, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.Locator, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
