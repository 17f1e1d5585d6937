package core

import "errors"

// Sentinel errors surfaced to the routing layer for translation into
// user-facing responses. Store failures are wrapped with the failing
// operation's name instead and never match these.
var (
	// ErrTaskNotFound indicates the task id does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidState indicates an operation not allowed in the task's
	// current status: appending to a non-active task, completing an
	// already-completed task, or completing a task with no check-ins.
	ErrInvalidState = errors.New("invalid task state")

	// ErrInvalidArgument indicates malformed caller input, e.g. an update
	// carrying no recognized field.
	ErrInvalidArgument = errors.New("invalid argument")
)
