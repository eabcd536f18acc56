package entity

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	TaskStatusCreated  TaskStatus = "created"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusPaused   TaskStatus = "paused"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusFailed   TaskStatus = "failed"
	TaskStatusStopped  TaskStatus = "stopped"
)

// IsTerminal reports whether the remote service will no longer change the status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusFinished || s == TaskStatusFailed || s == TaskStatusStopped
}

type Step struct {
	ID                     string `json:"id"`
	Step                   int    `json:"step"`
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`
	NextGoal               string `json:"next_goal"`
	URL                    string `json:"url"`
}

// TaskDetails mirrors the remote task resource. Output is kept raw: the
// service returns either a structured value or a JSON-encoded string.
type TaskDetails struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Status     TaskStatus      `json:"status"`
	Output     json.RawMessage `json:"output"`
	Error      string          `json:"error"`
	Steps      []Step          `json:"steps"`
	LiveURL    string          `json:"live_url"`
	CreatedAt  string          `json:"created_at,omitempty"`
	FinishedAt string          `json:"finished_at,omitempty"`
}

// CurrentGoal returns the next goal of the most recent step.
func (d *TaskDetails) CurrentGoal() (string, bool) {
	if len(d.Steps) == 0 {
		return "", false
	}
	goal := d.Steps[len(d.Steps)-1].NextGoal
	if goal == "" {
		goal = "Processing..."
	}
	return goal, true
}

type PollState string

const (
	PollStateSucceeded PollState = "succeeded"
	PollStateFailed    PollState = "failed"
	PollStateTimedOut  PollState = "timed_out"
)

// WaitResult is the terminal outcome of polling a task.
type WaitResult struct {
	TaskID  string
	State   PollState
	Status  TaskStatus
	Output  json.RawMessage
	Error   string
	Polls   int
	Elapsed time.Duration
}

func (r *WaitResult) Succeeded() bool {
	return r.State == PollStateSucceeded
}

type StopAck struct {
	TaskID string         `json:"task_id"`
	Body   map[string]any `json:"body,omitempty"`
}
