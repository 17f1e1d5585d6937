package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jyang234/mull/internal/core"
	"github.com/jyang234/mull/internal/synthesis"
)

// MockEngine implements TaskEngine for testing
type MockEngine struct {
	CreateTaskFunc   func(ctx context.Context, in core.CreateTaskInput) (*core.Task, error)
	GetTaskFunc      func(ctx context.Context, id string) (*core.Task, error)
	ListTasksFunc    func(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error)
	UpdateTaskFunc   func(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error)
	AddCheckInFunc   func(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error)
	CompleteTaskFunc func(ctx context.Context, id string) (*core.Task, error)
	DeleteTaskFunc   func(ctx context.Context, id string) (bool, error)
	ListOutboxFunc   func(ctx context.Context, taskID string) ([]core.OutboxEntry, error)
}

func (m *MockEngine) CreateTask(ctx context.Context, in core.CreateTaskInput) (*core.Task, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, in)
	}
	return &core.Task{ID: "t1"}, nil
}

func (m *MockEngine) GetTask(ctx context.Context, id string) (*core.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, id)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockEngine) ListTasks(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockEngine) UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, id, u)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockEngine) AddCheckIn(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
	if m.AddCheckInFunc != nil {
		return m.AddCheckInFunc(ctx, taskID, in)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockEngine) CompleteTask(ctx context.Context, id string) (*core.Task, error) {
	if m.CompleteTaskFunc != nil {
		return m.CompleteTaskFunc(ctx, id)
	}
	return nil, core.ErrTaskNotFound
}

func (m *MockEngine) Analyze(checkIns []core.CheckIn) core.TemporalAnalysis {
	return synthesis.Analyze(checkIns)
}

func (m *MockEngine) DeleteTask(ctx context.Context, id string) (bool, error) {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, id)
	}
	return false, nil
}

func (m *MockEngine) ListOutbox(ctx context.Context, taskID string) ([]core.OutboxEntry, error) {
	if m.ListOutboxFunc != nil {
		return m.ListOutboxFunc(ctx, taskID)
	}
	return nil, nil
}

func newTestServer(mock *MockEngine) *Server {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	s := &Server{
		engine: mock,
		router: router,
	}
	s.registerRoutes(router)

	return s
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// parseJSONResponse parses a JSON body into a generic map
func parseJSONResponse(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	return result
}

func TestHandleCreateTask(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		setupMock      func(*MockEngine)
		expectedStatus int
	}{
		{
			name: "valid input",
			body: core.CreateTaskInput{UserID: "u1", Title: "T"},
			setupMock: func(m *MockEngine) {
				m.CreateTaskFunc = func(ctx context.Context, in core.CreateTaskInput) (*core.Task, error) {
					if in.UserID != "u1" || in.Title != "T" {
						t.Errorf("unexpected input: %+v", in)
					}
					return &core.Task{ID: "t1", UserID: "u1", Title: "T"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "invalid argument maps to 400",
			body: core.CreateTaskInput{Title: "T"},
			setupMock: func(m *MockEngine) {
				m.CreateTaskFunc = func(ctx context.Context, in core.CreateTaskInput) (*core.Task, error) {
					return nil, fmt.Errorf("%w: user_id is required", core.ErrInvalidArgument)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockEngine{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			s := newTestServer(mock)

			w := doRequest(s, http.MethodPost, "/api/tasks", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestHandleGetTask(t *testing.T) {
	mock := &MockEngine{
		GetTaskFunc: func(ctx context.Context, id string) (*core.Task, error) {
			if id == "t1" {
				return &core.Task{ID: "t1", Title: "Found"}, nil
			}
			return nil, core.ErrTaskNotFound
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodGet, "/api/tasks/t1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	data := resp["data"].(map[string]interface{})
	if data["title"] != "Found" {
		t.Errorf("title = %v, want Found", data["title"])
	}

	w = doRequest(s, http.MethodGet, "/api/tasks/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleListTasks(t *testing.T) {
	mock := &MockEngine{
		ListTasksFunc: func(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error) {
			if userID != "u1" {
				t.Errorf("userID = %q, want u1", userID)
			}
			if filter.Status != "active" || filter.Limit != 10 || filter.Offset != 5 {
				t.Errorf("filter = %+v", filter)
			}
			return []core.Task{{ID: "t1"}, {ID: "t2"}}, nil
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodGet, "/api/tasks?user=u1&status=active&limit=10&offset=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}

func TestHandleListTasksRequiresUser(t *testing.T) {
	s := newTestServer(&MockEngine{})

	w := doRequest(s, http.MethodGet, "/api/tasks", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleUpdateTask(t *testing.T) {
	mock := &MockEngine{
		UpdateTaskFunc: func(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error) {
			if u.Title == nil || *u.Title != "Renamed" {
				t.Errorf("update = %+v", u)
			}
			return &core.Task{ID: id, Title: "Renamed"}, nil
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodPatch, "/api/tasks/t1", map[string]string{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestHandleAddCheckIn(t *testing.T) {
	mock := &MockEngine{
		AddCheckInFunc: func(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
			return &core.Task{ID: taskID, CheckIns: []core.CheckIn{{Number: 1}}}, nil
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodPost, "/api/tasks/t1/checkins", core.CheckInInput{
		TimeOfDay:     core.TimeEvening,
		QuestionAsked: "Q",
		QuestionType:  core.QuestionReflective,
		Response:      "R",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestHandleAddCheckInInvalidStateMapsTo409(t *testing.T) {
	mock := &MockEngine{
		AddCheckInFunc: func(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
			return nil, fmt.Errorf("%w: cannot add check-in to paused task", core.ErrInvalidState)
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodPost, "/api/tasks/t1/checkins", core.CheckInInput{
		TimeOfDay:     core.TimeMorning,
		QuestionAsked: "Q",
		Response:      "R",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestHandleCompleteTask(t *testing.T) {
	mock := &MockEngine{
		CompleteTaskFunc: func(ctx context.Context, id string) (*core.Task, error) {
			return &core.Task{ID: id, Status: core.StatusCompleted, FinalSynthesis: "doc"}, nil
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodPost, "/api/tasks/t1/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	data := resp["data"].(map[string]interface{})
	if data["status"] != core.StatusCompleted {
		t.Errorf("status = %v, want completed", data["status"])
	}
}

func TestHandleDeleteTask(t *testing.T) {
	mock := &MockEngine{
		DeleteTaskFunc: func(ctx context.Context, id string) (bool, error) {
			return id == "t1", nil
		},
	}
	s := newTestServer(mock)

	if w := doRequest(s, http.MethodDelete, "/api/tasks/t1", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w := doRequest(s, http.MethodDelete, "/api/tasks/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleAnalysisPreview(t *testing.T) {
	s := newTestServer(&MockEngine{})

	energy, focus := 5, 5
	w := doRequest(s, http.MethodPost, "/api/analysis/preview", []core.CheckIn{
		{Number: 1, TimeOfDay: core.TimeMorning, Energy: &energy, Focus: &focus},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	resp := parseJSONResponse(t, w.Body)
	data := resp["data"].(map[string]interface{})
	optimal := data["optimal_decision_time"].(map[string]interface{})
	if optimal["time_of_day"] != core.TimeMorning {
		t.Errorf("optimal time = %v, want morning", optimal["time_of_day"])
	}
	if optimal["average"].(float64) != 10 {
		t.Errorf("average = %v, want 10", optimal["average"])
	}
}

func TestHandleListOutbox(t *testing.T) {
	mock := &MockEngine{
		ListOutboxFunc: func(ctx context.Context, taskID string) ([]core.OutboxEntry, error) {
			return []core.OutboxEntry{{ID: "o1", TaskID: taskID, Status: core.OutboxFailed}}, nil
		},
	}
	s := newTestServer(mock)

	w := doRequest(s, http.MethodGet, "/api/tasks/t1/outbox", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := parseJSONResponse(t, w.Body)
	if resp["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", resp["count"])
	}
}
