package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable means the pool could not be constructed at
	// startup; every later call fails the same way rather than dialing
	// ad-hoc connections.
	ErrStoreUnavailable = errors.New("database unavailable")

	// ErrNotFound reports a mutation that matched zero rows. It is a
	// benign outcome: nothing changed and nothing was logged.
	ErrNotFound = errors.New("not found")

	ErrUsernameTaken    = errors.New("username already exists")
	ErrRoleUnknown      = errors.New("unknown role")
	ErrDepartmentExists = errors.New("department already exists")
)

// DepartmentInUseError refuses a department delete that would leave
// dangling name references.
type DepartmentInUseError struct {
	Name   string
	Reason string
}

func (e *DepartmentInUseError) Error() string {
	return fmt.Sprintf("department %q cannot be deleted: %s", e.Name, e.Reason)
}
