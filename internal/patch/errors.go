package patch

import "fmt"

// ShapeError is returned when a value does not have the shape its section requires
type ShapeError struct {
	Section string
	Message string
	Cause   error
}

func (e *ShapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid value for %s: %s: %v", e.Section, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid value for %s: %s", e.Section, e.Message)
}

func (e *ShapeError) Unwrap() error {
	return e.Cause
}
