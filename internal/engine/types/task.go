package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState is the lifecycle state of a download task.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskInProgress
	TaskCompleted
	TaskCancelled
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskInProgress:
		return "downloading"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *TaskState) UnmarshalText(text []byte) error {
	for c := TaskPending; c <= TaskFailed; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", text)
}

// IsTerminal reports whether the state ends a task's life.
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled || s == TaskFailed
}

// TransferHandle is the transfer layer's opaque handle for one in-flight transfer.
type TransferHandle any

// Task is the live state of one download. Fields are only mutated while
// the owning registry's lock is held; readers get a TaskInfo copy.
type Task struct {
	ID        string
	Track     Track
	Progress  float64
	Written   int64
	Total     int64
	Handle    TransferHandle
	State     TaskState
	StartedAt time.Time
}

// NewTask creates a pending task for track.
func NewTask(track Track) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Track:     track,
		State:     TaskPending,
		StartedAt: time.Now(),
	}
}

// Advance records byte counters and returns the resulting progress.
// Progress never moves backwards while the task is live.
func (t *Task) Advance(written, total int64) float64 {
	t.Written = written
	t.Total = total
	if t.State == TaskPending {
		t.State = TaskInProgress
	}
	if f := Fraction(written, total); f > t.Progress {
		t.Progress = f
	}
	return t.Progress
}

// Info returns a point-in-time copy without the transfer handle.
func (t *Task) Info() TaskInfo {
	return TaskInfo{
		ID:        t.ID,
		Track:     t.Track,
		Progress:  t.Progress,
		Written:   t.Written,
		Total:     t.Total,
		State:     t.State,
		StartedAt: t.StartedAt,
	}
}

// TaskInfo is a read-only snapshot of a Task.
type TaskInfo struct {
	ID        string    `json:"id"`
	Track     Track     `json:"track"`
	Progress  float64   `json:"progress"`
	Written   int64     `json:"written"`
	Total     int64     `json:"total"`
	State     TaskState `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// TaskHandle is returned from a successful start.
type TaskHandle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Fraction computes written/total clamped to [0,1].
// A non-positive total is indeterminate and yields 0 without dividing.
func Fraction(written, total int64) float64 {
	if total <= 0 || written <= 0 {
		return 0
	}
	if written >= total {
		return 1
	}
	return float64(written) / float64(total)
}
