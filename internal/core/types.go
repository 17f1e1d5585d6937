package core

import (
	"time"
)

// Task status constants
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// Time-of-day bucket constants, in canonical order
const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeLateNight = "late_night"
)

// TimeBuckets lists the buckets in canonical iteration order.
var TimeBuckets = []string{TimeMorning, TimeAfternoon, TimeEvening, TimeLateNight}

// Question type constants
const (
	QuestionAnalytical    = "analytical"
	QuestionCreative      = "creative"
	QuestionExperiential  = "experiential"
	QuestionReflective    = "reflective"
	QuestionPhilosophical = "philosophical"
	QuestionComfort       = "comfort"
	QuestionAspirational  = "aspirational"
	QuestionTactical      = "tactical"
)

// Detected cognitive state constants
const (
	StateAnalytical    = "analytical"
	StateCreative      = "creative"
	StateReflective    = "reflective"
	StatePhilosophical = "philosophical"
	StateEmotional     = "emotional"
)

// Duration bounds and defaults for task creation
const (
	MinDurationDays     = 1
	MaxDurationDays     = 30
	DefaultDurationDays = 5
)

// Task represents one multi-day inquiry a user is reasoning about.
type Task struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	CheckInTimes   []string   `json:"check_in_times"` // time-of-day buckets, fixed at creation
	DurationDays   int        `json:"duration_days"`
	Status         string     `json:"status"` // active, paused, completed, abandoned
	CheckIns       []CheckIn  `json:"check_ins"`
	FinalSynthesis string     `json:"final_synthesis,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	SynthesisAt    *time.Time `json:"synthesis_at,omitempty"`
}

// CheckIn represents one completed prompt/response pair in a task's history.
// Number is the 1-based position in the task's check-in sequence.
type CheckIn struct {
	Number        int       `json:"check_in_number"`
	TimeOfDay     string    `json:"time_of_day"`
	QuestionAsked string    `json:"question_asked"`
	QuestionType  string    `json:"question_type"`
	Response      string    `json:"response"`
	PromptID      string    `json:"prompt_id,omitempty"` // originating notification, if known
	Energy        *int      `json:"energy,omitempty"`    // self-reported, 1-5
	Mood          *int      `json:"mood,omitempty"`
	Focus         *int      `json:"focus,omitempty"`
	Insights      []string  `json:"insights"`
	DetectedState string    `json:"detected_state,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// CreateTaskInput carries the caller-supplied fields for task creation.
type CreateTaskInput struct {
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	CheckInTimes   []string   `json:"check_in_times,omitempty"` // default: morning, evening
	DurationDays   int        `json:"duration_days,omitempty"`  // default: 5
	InitialContext string     `json:"initial_context,omitempty"`
}

// CheckInInput carries the caller-supplied fields for recording a check-in.
// Number and CompletedAt are assigned by the recorder, never by the caller.
type CheckInInput struct {
	TimeOfDay     string   `json:"time_of_day"`
	QuestionAsked string   `json:"question_asked"`
	QuestionType  string   `json:"question_type"`
	Response      string   `json:"response"`
	PromptID      string   `json:"prompt_id,omitempty"`
	Energy        *int     `json:"energy,omitempty"`
	Mood          *int     `json:"mood,omitempty"`
	Focus         *int     `json:"focus,omitempty"`
	Insights      []string `json:"insights,omitempty"`
	DetectedState string   `json:"detected_state,omitempty"`
}

// TaskUpdate is an explicit partial update: only non-nil fields are applied.
type TaskUpdate struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	TargetDate     *time.Time `json:"target_date,omitempty"`
	FinalSynthesis *string    `json:"final_synthesis,omitempty"`
}

// Empty reports whether the update carries no recognized field.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.TargetDate == nil && u.FinalSynthesis == nil
}

// ListFilter narrows listByUser results.
type ListFilter struct {
	Status   string
	Category string
	Limit    int
	Offset   int
}

// List pagination defaults
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// PromptRequest is one scheduled check-in prompt handed to the notification
// gateway. ScheduledFor is the local wall-clock instant of the slot.
type PromptRequest struct {
	UserID         string    `json:"user_id"`
	TaskID         string    `json:"task_id"`
	Question       string    `json:"question"`
	Context        string    `json:"context"`
	TimeOfDay      string    `json:"preferred_time_of_day"`
	CognitiveState string    `json:"preferred_cognitive_state"`
	Priority       float64   `json:"priority"`
	ScheduledFor   time.Time `json:"scheduled_for"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// OutboxEntry records the durable outcome of one prompt enqueue attempt.
type OutboxEntry struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	UserID         string    `json:"user_id"`
	ScheduledFor   time.Time `json:"scheduled_for"`
	TimeOfDay      string    `json:"time_of_day"`
	Question       string    `json:"question"`
	Status         string    `json:"status"` // enqueued, failed
	NotificationID string    `json:"notification_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Outbox entry status constants
const (
	OutboxEnqueued = "enqueued"
	OutboxFailed   = "failed"
)

// TemporalAnalysis is the derived aggregation over a task's check-in history.
// InsightsByTime holds one flat list per bucket, in check-in order; every
// bucket key is always present.
type TemporalAnalysis struct {
	InsightsByTime      map[string][]string `json:"insights_by_time"`
	StateConsistency    string              `json:"state_consistency"`
	OptimalDecisionTime OptimalTime         `json:"optimal_decision_time"`
}

// OptimalTime names the time-of-day bucket with the best average
// energy+focus score across its check-ins.
type OptimalTime struct {
	TimeOfDay string  `json:"time_of_day"`
	Average   float64 `json:"average"`
}

// Conversation is the companion thread created atomically with each task.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidTimeOfDay reports whether s names a known bucket.
func ValidTimeOfDay(s string) bool {
	switch s {
	case TimeMorning, TimeAfternoon, TimeEvening, TimeLateNight:
		return true
	}
	return false
}

// ValidStatus reports whether s names a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}
