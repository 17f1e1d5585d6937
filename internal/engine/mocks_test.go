package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/jyang234/mull/internal/core"
)

// Common test errors
var (
	ErrMockStore   = errors.New("mock store error")
	ErrMockGateway = errors.New("mock gateway error")
)

// MockStore implements core.TaskStore for testing
type MockStore struct {
	mu sync.Mutex

	CreateTaskFunc    func(ctx context.Context, task *core.Task, conv *core.Conversation) error
	GetTaskFunc       func(ctx context.Context, id string) (*core.Task, error)
	ListTasksFunc     func(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error)
	UpdateTaskFunc    func(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error)
	AppendCheckInFunc func(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error)
	DeleteTaskFunc    func(ctx context.Context, id string) (bool, error)

	CreatedTasks  []*core.Task
	CreatedConvs  []*core.Conversation
	OutboxEntries []*core.OutboxEntry
	Updates       []core.TaskUpdate
}

func (m *MockStore) CreateTask(ctx context.Context, task *core.Task, conv *core.Conversation) error {
	m.mu.Lock()
	m.CreatedTasks = append(m.CreatedTasks, task)
	m.CreatedConvs = append(m.CreatedConvs, conv)
	m.mu.Unlock()

	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, task, conv)
	}
	task.ConversationID = conv.ID
	return nil
}

func (m *MockStore) GetTask(ctx context.Context, id string) (*core.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, id)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockStore) ListTasks(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockStore) UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error) {
	m.mu.Lock()
	m.Updates = append(m.Updates, u)
	m.mu.Unlock()

	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, id, u)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockStore) AppendCheckIn(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
	if m.AppendCheckInFunc != nil {
		return m.AppendCheckInFunc(ctx, taskID, in)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockStore) DeleteTask(ctx context.Context, id string) (bool, error) {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, id)
	}
	return false, nil
}

func (m *MockStore) RecordOutbox(ctx context.Context, entry *core.OutboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OutboxEntries = append(m.OutboxEntries, entry)
	return nil
}

func (m *MockStore) ListOutbox(ctx context.Context, taskID string) ([]core.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []core.OutboxEntry
	for _, e := range m.OutboxEntries {
		if e.TaskID == taskID {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (m *MockStore) Close() error { return nil }

// MockGateway implements core.NotificationGateway for testing
type MockGateway struct {
	mu         sync.Mutex
	CreateFunc func(ctx context.Context, req core.PromptRequest) (string, error)
	Requests   []core.PromptRequest
	FailOnCall int // Fail on Nth call (0 = never fail)
	CallCount  int
}

func (m *MockGateway) Create(ctx context.Context, req core.PromptRequest) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.Requests = append(m.Requests, req)
	call := m.CallCount
	m.mu.Unlock()

	if m.FailOnCall > 0 && call == m.FailOnCall {
		return "", ErrMockGateway
	}
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return "notif-1", nil
}
