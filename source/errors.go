package source

import (
	"errors"
	"fmt"
)

// ErrNotRegular is returned by Follow for paths that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// ProcessError reports a child process that exited unsuccessfully.
type ProcessError struct {
	Cause    error
	Name     string
	ExitCode int
}

func (e *ProcessError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s terminated: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}
