package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	mu      sync.Mutex
	details []*entity.TaskDetails
	err     error
	calls   int
}

func (c *scriptedClient) CreateTask(ctx context.Context, instructions string, shape output.OutputShape) (string, error) {
	return "task-1", nil
}

func (c *scriptedClient) GetTaskDetails(ctx context.Context, taskID string) (*entity.TaskDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if len(c.details) == 0 {
		return &entity.TaskDetails{ID: taskID, Status: entity.TaskStatusRunning}, nil
	}
	d := c.details[0]
	if len(c.details) > 1 {
		c.details = c.details[1:]
	}
	return d, nil
}

func (c *scriptedClient) StopTask(ctx context.Context, taskID string) (*entity.StopAck, error) {
	return &entity.StopAck{TaskID: taskID}, nil
}

type recordingProgress struct {
	polled    []entity.TaskStatus
	finished  *entity.WaitResult
	abandoned error
}

func (r *recordingProgress) TaskCreated(ctx context.Context, op, taskID string) {}

func (r *recordingProgress) TaskPolled(ctx context.Context, details *entity.TaskDetails) {
	r.polled = append(r.polled, details.Status)
}

func (r *recordingProgress) TaskFinished(ctx context.Context, result *entity.WaitResult) {
	r.finished = result
}

func (r *recordingProgress) TaskAbandoned(ctx context.Context, taskID string, err error) {
	r.abandoned = err
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestPoller(client output.TaskClientPort, progress output.ProgressPort) (*Poller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := New(client, progress, logger.NewNop())
	p.now = clock.Now
	p.sleep = clock.Sleep
	return p, clock
}

func running(steps ...entity.Step) *entity.TaskDetails {
	return &entity.TaskDetails{Status: entity.TaskStatusRunning, Steps: steps}
}

func TestWait_Succeeds(t *testing.T) {
	client := &scriptedClient{details: []*entity.TaskDetails{
		running(),
		running(entity.Step{NextGoal: "open store"}),
		{Status: entity.TaskStatusFinished, Output: json.RawMessage(`{"products":[]}`)},
	}}
	progress := &recordingProgress{}
	p, clock := newTestPoller(client, progress)

	result, err := p.Wait(context.Background(), "task-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, entity.PollStateSucceeded, result.State)
	assert.True(t, result.Succeeded())
	assert.JSONEq(t, `{"products":[]}`, string(result.Output))
	assert.Equal(t, 3, result.Polls)
	assert.Equal(t, []time.Duration{DefaultInterval, DefaultInterval}, clock.sleeps)
	assert.Equal(t, []entity.TaskStatus{entity.TaskStatusRunning, entity.TaskStatusRunning, entity.TaskStatusFinished}, progress.polled)
	require.NotNil(t, progress.finished)
	assert.Equal(t, entity.PollStateSucceeded, progress.finished.State)
}

func TestWait_FailedWithRemoteMessage(t *testing.T) {
	client := &scriptedClient{details: []*entity.TaskDetails{
		{Status: entity.TaskStatusFailed, Error: "captcha blocked"},
	}}
	p, _ := newTestPoller(client, nil)

	result, err := p.Wait(context.Background(), "task-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, entity.PollStateFailed, result.State)
	assert.Equal(t, "captcha blocked", result.Error)
}

func TestWait_StoppedUsesDefaultMessage(t *testing.T) {
	client := &scriptedClient{details: []*entity.TaskDetails{
		running(),
		{Status: entity.TaskStatusStopped},
	}}
	p, _ := newTestPoller(client, nil)

	result, err := p.Wait(context.Background(), "task-1", Options{})
	require.NoError(t, err)

	assert.Equal(t, entity.PollStateFailed, result.State)
	assert.Equal(t, entity.TaskStatusStopped, result.Status)
	assert.Equal(t, "Task failed", result.Error)
}

func TestWait_TimesOut(t *testing.T) {
	client := &scriptedClient{}
	progress := &recordingProgress{}
	p, _ := newTestPoller(client, progress)

	opts := Options{Interval: 2 * time.Second, Timeout: 10 * time.Second}
	result, err := p.Wait(context.Background(), "task-1", opts)
	require.NoError(t, err)

	assert.Equal(t, entity.PollStateTimedOut, result.State)
	assert.Equal(t, "Task timeout", result.Error)
	assert.Equal(t, 5, client.calls)
	assert.LessOrEqual(t, result.Elapsed, opts.Timeout+opts.Interval)
	require.NotNil(t, progress.finished)
	assert.Equal(t, entity.PollStateTimedOut, progress.finished.State)
}

func TestWait_LastSleepClampedToRemainingTime(t *testing.T) {
	client := &scriptedClient{}
	p, clock := newTestPoller(client, nil)

	result, err := p.Wait(context.Background(), "task-1", Options{Interval: 2 * time.Second, Timeout: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, entity.PollStateTimedOut, result.State)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, time.Second}, clock.sleeps)
	assert.Equal(t, 5*time.Second, result.Elapsed)
}

func TestWait_FetchErrorStopsLoop(t *testing.T) {
	fetchErr := &entity.RequestError{Method: "GET", URL: "http://x/task/1", StatusCode: 500}
	client := &scriptedClient{err: fetchErr}
	progress := &recordingProgress{}
	p, _ := newTestPoller(client, progress)

	result, err := p.Wait(context.Background(), "task-1", Options{})
	assert.Nil(t, result)

	var reqErr *entity.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 1, client.calls)
	assert.Nil(t, progress.finished)
	assert.ErrorIs(t, progress.abandoned, fetchErr)
}

func TestWait_ContextCanceledDuringSleep(t *testing.T) {
	client := &scriptedClient{}
	progress := &recordingProgress{}
	p := New(client, progress, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.Wait(ctx, "task-1", Options{Interval: time.Hour, Timeout: 2 * time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, progress.abandoned, context.Canceled)
}

func TestWait_RealClockTerminatesWithinBound(t *testing.T) {
	client := &scriptedClient{}
	p := New(client, nil, logger.NewNop())

	opts := Options{Interval: 20 * time.Millisecond, Timeout: 100 * time.Millisecond}
	start := time.Now()
	result, err := p.Wait(context.Background(), "task-1", opts)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, entity.PollStateTimedOut, result.State)
	assert.GreaterOrEqual(t, elapsed, opts.Timeout)
	assert.Less(t, elapsed, opts.Timeout+opts.Interval+200*time.Millisecond)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultInterval, opts.Interval)
	assert.Equal(t, DefaultTimeout, opts.Timeout)

	custom := Options{Interval: time.Second, Timeout: time.Minute}.withDefaults()
	assert.Equal(t, time.Second, custom.Interval)
	assert.Equal(t, time.Minute, custom.Timeout)
}
