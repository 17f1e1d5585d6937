package core

import (
	"context"
)

// TaskStore is durable keyed storage for tasks and their embedded
// check-in history.
// Implementations: storage.Store (SQLite)
type TaskStore interface {
	// CreateTask persists the task and its companion conversation in one
	// atomic transaction. The task's ConversationID must reference conv
	// before the transaction commits.
	CreateTask(ctx context.Context, task *Task, conv *Conversation) error

	// GetTask returns the task with its full check-in history, or
	// ErrTaskNotFound.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns a user's tasks newest-created-first, narrowed by
	// the filter. The history of each returned task is populated.
	ListTasks(ctx context.Context, userID string, filter ListFilter) ([]Task, error)

	// UpdateTask applies only the non-nil fields of u and returns the
	// updated task. Setting status to completed stamps CompletedAt;
	// setting a final synthesis stamps SynthesisAt. Returns
	// ErrTaskNotFound if the task does not exist.
	UpdateTask(ctx context.Context, id string, u TaskUpdate) (*Task, error)

	// AppendCheckIn atomically assigns the next sequence number and
	// appends one check-in. At most one writer advances the sequence per
	// task; concurrent appends serialize rather than overwrite. Returns
	// ErrTaskNotFound if the task is absent and ErrInvalidState if its
	// status is not active.
	AppendCheckIn(ctx context.Context, taskID string, in CheckInInput) (*Task, error)

	// DeleteTask removes the task and reports whether a row existed.
	DeleteTask(ctx context.Context, id string) (bool, error)

	// RecordOutbox durably records the outcome of one prompt enqueue
	// attempt.
	RecordOutbox(ctx context.Context, entry *OutboxEntry) error

	// ListOutbox returns a task's outbox entries in scheduled order.
	ListOutbox(ctx context.Context, taskID string) ([]OutboxEntry, error)

	Close() error
}

// NotificationGateway accepts check-in prompt requests for later delivery.
// Failures are isolated per request; the core never retries.
// Implementations: notify.Client (HTTP)
type NotificationGateway interface {
	// Create enqueues one prompt and returns the gateway's identifier.
	Create(ctx context.Context, req PromptRequest) (string, error)
}
