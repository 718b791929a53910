package display

import "fmt"

// Error is a failure while the actor handled a command. A recovered panic
// is reported the same way.
type Error struct {
	Command string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("display %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("display %s: %s: %v", e.Command, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
