package runner

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when a command has no program name.
var ErrEmptyCommand = errors.New("empty command")

// CommandFailedError reports a child that exited with a non-zero status
// while stderr was not being captured into the result.
type CommandFailedError struct {
	// Command is the argv that was executed, including any bridge prefix.
	Command    []string
	ExitStatus int
	Stderr     string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %q returned non-zero exit status %d", e.Command, e.ExitStatus)
}

// NewCommandFailedError creates a CommandFailedError.
func NewCommandFailedError(command []string, exitStatus int, stderr string) *CommandFailedError {
	return &CommandFailedError{
		Command:    append([]string(nil), command...),
		ExitStatus: exitStatus,
		Stderr:     stderr,
	}
}

// IsCommandFailed checks if err is, or wraps, a CommandFailedError.
func IsCommandFailed(err error) bool {
	var failed *CommandFailedError
	return errors.As(err, &failed)
}
