// Package storage provides the SQLite-backed task store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/jyang234/mull/internal/core"
)

// Store handles SQLite task storage
type Store struct {
	db *sql.DB
}

// GenerateID returns a new unique entity identifier.
func GenerateID() string {
	return uuid.New().String()
}

// NewStore opens (creating if needed) the task database at dbPath.
// Pass ":memory:" for an ephemeral database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		// Expand ~ in path
		if strings.HasPrefix(dbPath, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dbPath = filepath.Join(home, dbPath[1:])
		}

		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// A single connection serializes writers, which the check-in append
	// path depends on, and keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Migrate creates the necessary tables
func (s *Store) Migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT,
			target_date DATETIME,
			check_in_times TEXT NOT NULL,
			duration_days INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			final_synthesis TEXT,
			conversation_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			completed_at DATETIME,
			synthesis_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			title TEXT NOT NULL,
			context TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS check_ins (
			task_id TEXT NOT NULL,
			check_in_number INTEGER NOT NULL,
			time_of_day TEXT NOT NULL,
			question_asked TEXT NOT NULL,
			question_type TEXT NOT NULL,
			response TEXT NOT NULL,
			prompt_id TEXT,
			energy INTEGER,
			mood INTEGER,
			focus INTEGER,
			insights TEXT NOT NULL,
			detected_state TEXT,
			completed_at DATETIME NOT NULL,
			PRIMARY KEY (task_id, check_in_number),
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS prompt_outbox (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			scheduled_for DATETIME NOT NULL,
			time_of_day TEXT NOT NULL,
			question TEXT NOT NULL,
			status TEXT NOT NULL,
			notification_id TEXT,
			error TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_conversations_task ON conversations(task_id);
		CREATE INDEX IF NOT EXISTS idx_outbox_task ON prompt_outbox(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTask persists the task and its companion conversation in one
// transaction. The task's conversation reference is written before commit.
func (s *Store) CreateTask(ctx context.Context, task *core.Task, conv *core.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create task: begin: %w", err)
	}
	defer tx.Rollback()

	timesJSON, _ := json.Marshal(task.CheckInTimes)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, category, target_date, check_in_times,
			duration_days, status, final_synthesis, conversation_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)
	`, task.ID, task.UserID, task.Title, task.Description, task.Category, nullTime(task.TargetDate),
		string(timesJSON), task.DurationDays, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: insert task: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, task_id, title, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, conv.ID, conv.UserID, conv.TaskID, conv.Title, conv.Context, conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: insert conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks SET conversation_id = ? WHERE id = ?`, conv.ID, task.ID)
	if err != nil {
		return fmt.Errorf("create task: link conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create task: commit: %w", err)
	}

	task.ConversationID = conv.ID
	return nil
}

// GetTask retrieves a task and its ordered check-in history.
func (s *Store) GetTask(ctx context.Context, id string) (*core.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, category, target_date, check_in_times,
			duration_days, status, final_synthesis, conversation_id, created_at, updated_at,
			completed_at, synthesis_at
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	task.CheckIns, err = s.loadCheckIns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

// ListTasks returns a user's tasks newest-created-first.
func (s *Store) ListTasks(ctx context.Context, userID string, filter core.ListFilter) ([]core.Task, error) {
	query := `
		SELECT id, user_id, title, description, category, target_date, check_in_times,
			duration_days, status, final_synthesis, conversation_id, created_at, updated_at,
			completed_at, synthesis_at
		FROM tasks WHERE user_id = ?
	`
	args := []any{userID}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = core.DefaultListLimit
	}
	if limit > core.MaxListLimit {
		limit = core.MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []core.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	for i := range tasks {
		tasks[i].CheckIns, err = s.loadCheckIns(ctx, tasks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
	}

	return tasks, nil
}

// UpdateTask applies only the non-nil fields of u. Setting status to
// completed stamps completed_at; setting a final synthesis stamps
// synthesis_at.
func (s *Store) UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (*core.Task, error) {
	now := time.Now()
	sets := []string{"updated_at = ?"}
	args := []any{now}

	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
		if *u.Status == core.StatusCompleted {
			sets = append(sets, "completed_at = ?")
			args = append(args, now)
		}
	}
	if u.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, *u.TargetDate)
	}
	if u.FinalSynthesis != nil {
		sets = append(sets, "final_synthesis = ?", "synthesis_at = ?")
		args = append(args, *u.FinalSynthesis, now)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return nil, core.ErrTaskNotFound
	}

	return s.GetTask(ctx, id)
}

// AppendCheckIn assigns the next sequence number and appends one check-in
// inside a transaction. The (task_id, check_in_number) primary key makes
// a lost update impossible: if two appends race, the loser hits a
// constraint violation and retries against the advanced sequence.
func (s *Store) AppendCheckIn(ctx context.Context, taskID string, in core.CheckInInput) (*core.Task, error) {
	const maxAttempts = 2

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.appendCheckInOnce(ctx, taskID, in)
		if err == nil {
			return s.GetTask(ctx, taskID)
		}
		if !isConstraintViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("add check-in: sequence conflict persisted: %w", lastErr)
}

func (s *Store) appendCheckInOnce(ctx context.Context, taskID string, in core.CheckInInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add check-in: begin: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, taskID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrTaskNotFound
		}
		return fmt.Errorf("add check-in: load status: %w", err)
	}
	if status != core.StatusActive {
		return fmt.Errorf("%w: cannot add check-in to %s task", core.ErrInvalidState, status)
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM check_ins WHERE task_id = ?`, taskID).Scan(&count)
	if err != nil {
		return fmt.Errorf("add check-in: count: %w", err)
	}

	insights := in.Insights
	if insights == nil {
		insights = []string{}
	}
	insightsJSON, _ := json.Marshal(insights)
	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO check_ins (task_id, check_in_number, time_of_day, question_asked, question_type,
			response, prompt_id, energy, mood, focus, insights, detected_state, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, taskID, count+1, in.TimeOfDay, in.QuestionAsked, in.QuestionType, in.Response,
		in.PromptID, nullInt(in.Energy), nullInt(in.Mood), nullInt(in.Focus),
		string(insightsJSON), in.DetectedState, now)
	if err != nil {
		return fmt.Errorf("add check-in: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, now, taskID)
	if err != nil {
		return fmt.Errorf("add check-in: touch task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add check-in: commit: %w", err)
	}
	return nil
}

// DeleteTask removes the task and reports whether a row existed.
// Conversations, check-ins and outbox entries cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return affected > 0, nil
}

// RecordOutbox records one prompt enqueue outcome.
func (s *Store) RecordOutbox(ctx context.Context, entry *core.OutboxEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_outbox (id, task_id, user_id, scheduled_for, time_of_day, question,
			status, notification_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TaskID, entry.UserID, entry.ScheduledFor, entry.TimeOfDay,
		entry.Question, entry.Status, entry.NotificationID, entry.Error, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record outbox: %w", err)
	}
	return nil
}

// ListOutbox returns a task's outbox entries in scheduled order.
func (s *Store) ListOutbox(ctx context.Context, taskID string) ([]core.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_id, scheduled_for, time_of_day, question,
			status, notification_id, error, created_at
		FROM prompt_outbox WHERE task_id = ? ORDER BY scheduled_for ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var entries []core.OutboxEntry
	for rows.Next() {
		var e core.OutboxEntry
		err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.ScheduledFor, &e.TimeOfDay,
			&e.Question, &e.Status, &e.NotificationID, &e.Error, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("list outbox: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	return entries, nil
}

func (s *Store) loadCheckIns(ctx context.Context, taskID string) ([]core.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT check_in_number, time_of_day, question_asked, question_type, response,
			prompt_id, energy, mood, focus, insights, detected_state, completed_at
		FROM check_ins WHERE task_id = ? ORDER BY check_in_number ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkIns := []core.CheckIn{}
	for rows.Next() {
		var ci core.CheckIn
		var promptID, detectedState sql.NullString
		var energy, mood, focus sql.NullInt64
		var insightsJSON string

		err := rows.Scan(&ci.Number, &ci.TimeOfDay, &ci.QuestionAsked, &ci.QuestionType,
			&ci.Response, &promptID, &energy, &mood, &focus, &insightsJSON,
			&detectedState, &ci.CompletedAt)
		if err != nil {
			return nil, err
		}

		ci.PromptID = promptID.String
		ci.DetectedState = detectedState.String
		ci.Energy = intPtr(energy)
		ci.Mood = intPtr(mood)
		ci.Focus = intPtr(focus)
		json.Unmarshal([]byte(insightsJSON), &ci.Insights)
		if ci.Insights == nil {
			ci.Insights = []string{}
		}

		checkIns = append(checkIns, ci)
	}
	return checkIns, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*core.Task, error) {
	var task core.Task
	var description, category, finalSynthesis, conversationID sql.NullString
	var targetDate, completedAt, synthesisAt sql.NullTime
	var timesJSON string

	err := row.Scan(&task.ID, &task.UserID, &task.Title, &description, &category,
		&targetDate, &timesJSON, &task.DurationDays, &task.Status, &finalSynthesis,
		&conversationID, &task.CreatedAt, &task.UpdatedAt, &completedAt, &synthesisAt)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.Category = category.String
	task.FinalSynthesis = finalSynthesis.String
	task.ConversationID = conversationID.String
	task.TargetDate = timePtr(targetDate)
	task.CompletedAt = timePtr(completedAt)
	task.SynthesisAt = timePtr(synthesisAt)
	json.Unmarshal([]byte(timesJSON), &task.CheckInTimes)

	return &task, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
