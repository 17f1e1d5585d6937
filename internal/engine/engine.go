// Package engine orchestrates task lifecycle, check-in recording, and
// synthesis-driven completion over the task store and the notification
// gateway.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jyang234/mull/internal/core"
	"github.com/jyang234/mull/internal/schedule"
	"github.com/jyang234/mull/internal/storage"
	"github.com/jyang234/mull/internal/synthesis"
)

// Engine owns every operation the routing layer exposes.
type Engine struct {
	store     core.TaskStore
	gateway   core.NotificationGateway
	generator *schedule.Generator
	now       func() time.Time
}

// Deps holds dependencies for constructing an Engine.
type Deps struct {
	Store     core.TaskStore
	Gateway   core.NotificationGateway
	Generator *schedule.Generator
	Now       func() time.Time
}

// NewEngine creates an engine with a SQLite-backed store and an HTTP
// notification gateway.
func NewEngine(store core.TaskStore, gateway core.NotificationGateway) *Engine {
	return &Engine{
		store:     store,
		gateway:   gateway,
		generator: schedule.NewGenerator(),
		now:       time.Now,
	}
}

// NewEngineWithDeps creates an engine with explicit dependencies (for testing).
func NewEngineWithDeps(deps Deps) *Engine {
	e := &Engine{
		store:     deps.Store,
		gateway:   deps.Gateway,
		generator: deps.Generator,
		now:       deps.Now,
	}
	if e.generator == nil {
		e.generator = schedule.NewGenerator()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// CreateTask atomically persists a new active task and its companion
// conversation, then enqueues the check-in prompt schedule. Enqueue
// failures are logged and recorded in the outbox; they never fail the
// already-committed creation.
func (e *Engine) CreateTask(ctx context.Context, in core.CreateTaskInput) (*core.Task, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", core.ErrInvalidArgument)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", core.ErrInvalidArgument)
	}

	times := in.CheckInTimes
	if len(times) == 0 {
		times = []string{core.TimeMorning, core.TimeEvening}
	}
	for _, t := range times {
		if !core.ValidTimeOfDay(t) {
			return nil, fmt.Errorf("%w: unknown time of day %q", core.ErrInvalidArgument, t)
		}
	}

	duration := in.DurationDays
	if duration == 0 {
		duration = core.DefaultDurationDays
	}
	if duration < core.MinDurationDays || duration > core.MaxDurationDays {
		return nil, fmt.Errorf("%w: duration_days must be between %d and %d",
			core.ErrInvalidArgument, core.MinDurationDays, core.MaxDurationDays)
	}

	now := e.now()
	task := &core.Task{
		ID:           storage.GenerateID(),
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		TargetDate:   in.TargetDate,
		CheckInTimes: times,
		DurationDays: duration,
		Status:       core.StatusActive,
		CheckIns:     []core.CheckIn{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	conv := &core.Conversation{
		ID:        storage.GenerateID(),
		UserID:    in.UserID,
		TaskID:    task.ID,
		Title:     fmt.Sprintf("Companion: %s", in.Title),
		Context:   in.InitialContext,
		CreatedAt: now,
	}

	if err := e.store.CreateTask(ctx, task, conv); err != nil {
		return nil, err
	}

	// The creation transaction has committed; schedule generation is a
	// separate, best-effort outcome from here on.
	e.enqueuePrompts(ctx, task)

	return task, nil
}

// enqueuePrompts submits each generated prompt to the gateway, recording
// per-slot outcomes in the outbox. Each failure is isolated: it is
// logged, recorded, and skipped.
func (e *Engine) enqueuePrompts(ctx context.Context, task *core.Task) {
	for _, prompt := range e.generator.Plan(task) {
		entry := &core.OutboxEntry{
			ID:           storage.GenerateID(),
			TaskID:       task.ID,
			UserID:       task.UserID,
			ScheduledFor: prompt.ScheduledFor,
			TimeOfDay:    prompt.TimeOfDay,
			Question:     prompt.Question,
			CreatedAt:    e.now(),
		}

		notificationID, err := e.gateway.Create(ctx, prompt)
		if err != nil {
			log.Printf("Warning: prompt enqueue failed for task %s (%s %s): %v",
				task.ID, prompt.ScheduledFor.Format("2006-01-02"), prompt.TimeOfDay, err)
			entry.Status = core.OutboxFailed
			entry.Error = err.Error()
		} else {
			entry.Status = core.OutboxEnqueued
			entry.NotificationID = notificationID
		}

		if err := e.store.RecordOutbox(ctx, entry); err != nil {
			log.Printf("Warning: outbox record failed for task %s: %v", task.ID, err)
		}
	}
}

// GetTask returns a task with its full history, or ErrTaskNotFound.
func (e *Engine) GetTask(ctx context.Context, id string) (*core.Task, error) {
	return e.store.GetTask(ctx, id)
}

// ListTasks returns a user's tasks newest-created-first.
func (e *Engine) ListTasks(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", core.ErrInvalidArgument)
	}
	if filter.Status != "" && !core.ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", core.ErrInvalidArgument, filter.Status)
	}
	return e.store.ListTasks(ctx, userID, filter)
}

// UpdateTask applies a partial update. A completed task is read-only;
// an update with no recognized field is rejected.
func (e *Engine) UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error) {
	if u.Empty() {
		return nil, fmt.Errorf("%w: no updatable fields provided", core.ErrInvalidArgument)
	}
	if u.Status != nil && !core.ValidStatus(*u.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", core.ErrInvalidArgument, *u.Status)
	}

	current, err := e.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == core.StatusCompleted {
		return nil, fmt.Errorf("%w: completed task is read-only", core.ErrInvalidState)
	}

	return e.store.UpdateTask(ctx, id, u)
}

// AddCheckIn records one completed prompt/response pair on an active
// task. The store assigns the sequence number and timestamp.
func (e *Engine) AddCheckIn(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
	if !core.ValidTimeOfDay(in.TimeOfDay) {
		return nil, fmt.Errorf("%w: unknown time of day %q", core.ErrInvalidArgument, in.TimeOfDay)
	}
	if in.QuestionAsked == "" || in.Response == "" {
		return nil, fmt.Errorf("%w: question_asked and response are required", core.ErrInvalidArgument)
	}
	for name, score := range map[string]*int{"energy": in.Energy, "mood": in.Mood, "focus": in.Focus} {
		if score != nil && (*score < 1 || *score > 5) {
			return nil, fmt.Errorf("%w: %s must be between 1 and 5", core.ErrInvalidArgument, name)
		}
	}

	return e.store.AppendCheckIn(ctx, taskID, in)
}

// CompleteTask aggregates the task's history into a temporal analysis,
// renders the synthesis document, and transitions the task to completed.
func (e *Engine) CompleteTask(ctx context.Context, id string) (*core.Task, error) {
	task, err := e.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == core.StatusCompleted {
		return nil, fmt.Errorf("%w: task already completed", core.ErrInvalidState)
	}
	if len(task.CheckIns) == 0 {
		return nil, fmt.Errorf("%w: cannot complete a task with no check-ins", core.ErrInvalidState)
	}

	analysis := synthesis.Analyze(task.CheckIns)
	doc := synthesis.Render(task, analysis)

	completed := core.StatusCompleted
	return e.store.UpdateTask(ctx, id, core.TaskUpdate{
		Status:         &completed,
		FinalSynthesis: &doc,
	})
}

// Analyze computes the temporal analysis over an arbitrary check-in
// history without touching any task (for preview).
func (e *Engine) Analyze(checkIns []core.CheckIn) core.TemporalAnalysis {
	return synthesis.Analyze(checkIns)
}

// DeleteTask removes a task and reports whether it existed.
func (e *Engine) DeleteTask(ctx context.Context, id string) (bool, error) {
	return e.store.DeleteTask(ctx, id)
}

// ListOutbox returns the recorded prompt enqueue outcomes for a task.
func (e *Engine) ListOutbox(ctx context.Context, taskID string) ([]core.OutboxEntry, error) {
	if _, err := e.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return e.store.ListOutbox(ctx, taskID)
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}
