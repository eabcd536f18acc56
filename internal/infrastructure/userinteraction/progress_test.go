package userinteraction

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

type countingProgress struct {
	created, polled, finished, abandoned int
}

func (c *countingProgress) TaskCreated(ctx context.Context, op, taskID string)          { c.created++ }
func (c *countingProgress) TaskPolled(ctx context.Context, details *entity.TaskDetails) { c.polled++ }
func (c *countingProgress) TaskFinished(ctx context.Context, result *entity.WaitResult) { c.finished++ }
func (c *countingProgress) TaskAbandoned(ctx context.Context, taskID string, err error) { c.abandoned++ }

func TestConsoleProgress_PrintsStatusAndStep(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)
	ctx := context.Background()

	p.TaskCreated(ctx, "search", "task-1")
	p.TaskPolled(ctx, &entity.TaskDetails{Status: entity.TaskStatusRunning})
	p.TaskPolled(ctx, &entity.TaskDetails{
		Status: entity.TaskStatusRunning,
		Steps:  []entity.Step{{NextGoal: "Open amazon.com"}, {NextGoal: ""}},
	})
	p.TaskFinished(ctx, &entity.WaitResult{TaskID: "task-1", State: entity.PollStateTimedOut, Error: "Task timeout"})

	out := buf.String()
	assert.Contains(t, out, "Task created: task-1 (search)")
	assert.Contains(t, out, "Task status: running")
	assert.Contains(t, out, "Current step: Processing...")
	assert.NotContains(t, out, "Open amazon.com")
	assert.Contains(t, out, "Task task-1: Task timeout")

	buf.Reset()
	p.TaskAbandoned(ctx, "task-2", context.Canceled)
	assert.Contains(t, buf.String(), "Task task-2: polling stopped: context canceled")
}

func TestMultiProgress(t *testing.T) {
	a, b := &countingProgress{}, &countingProgress{}

	m := NewMultiProgress(a, nil, b)
	m.TaskCreated(context.Background(), "search", "t")
	m.TaskPolled(context.Background(), &entity.TaskDetails{})
	m.TaskFinished(context.Background(), &entity.WaitResult{})
	m.TaskAbandoned(context.Background(), "t", context.Canceled)

	assert.Equal(t, countingProgress{1, 1, 1, 1}, *a)
	assert.Equal(t, countingProgress{1, 1, 1, 1}, *b)
}

func TestNewMultiProgress_CollapsesTrivialCases(t *testing.T) {
	assert.Nil(t, NewMultiProgress(nil, nil))

	single := &countingProgress{}
	assert.Equal(t, output.ProgressPort(single), NewMultiProgress(nil, single))
}

func TestConsole_SearchResult(t *testing.T) {
	var buf bytes.Buffer
	rating := 4.5
	NewConsole(&buf).SearchResult(&entity.SearchResult{
		Products: []entity.SearchProduct{
			{Name: "Sony WH-1000XM5", Price: 348, Rating: &rating, InStock: true},
			{Name: "Bose QC45", Price: 279},
		},
		SearchTime: 1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Found 2 products in 1.50 seconds")
	assert.Contains(t, out, "1. Sony WH-1000XM5")
	assert.Contains(t, out, "Rating: 4.5/5")
	assert.Contains(t, out, "Rating: N/A/5")
	assert.Contains(t, out, "In Stock: No")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Summary(entity.ShoppingSummary{SearchesPerformed: 2, PurchasesMade: 1, TotalSpent: 49.99})

	out := buf.String()
	assert.Contains(t, out, "Searches performed: 2")
	assert.Contains(t, out, "Purchases made: 1")
	assert.Contains(t, out, "Total spent: $49.99")
}

func TestConsole_FailedPurchaseAndTracking(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Purchase(&entity.PurchaseResult{ErrorMessage: "Task failed"})
	c.Tracking("ORD-1", &entity.TrackingInfo{Error: "Could not track order"})

	out := buf.String()
	assert.Contains(t, out, "Purchase failed: Task failed")
	assert.Contains(t, out, "Could not track order")
}
