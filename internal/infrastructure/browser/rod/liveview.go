package rod

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
)

var _ output.ProgressPort = (*LiveViewer)(nil)

const (
	finishTimeout = 30 * time.Second
	openTimeout   = 30 * time.Second
)

var errBrowserUnavailable = errors.New("browser unavailable")

// LivePage это открытая вкладка с live-сессией задачи.
type LivePage interface {
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	Close() error
}

type PageOpener interface {
	Open(ctx context.Context, url string) (LivePage, error)
}

// LiveViewer opens the live URL of every polled task in a local browser and
// stores a final screenshot when the task ends. Launching Chrome and loading
// the page happen off the polling goroutine. All failures are logged and
// never reach the polling loop.
type LiveViewer struct {
	mu     sync.Mutex
	tabs   map[string]*liveTab
	closed bool
	wg     sync.WaitGroup

	// launchMu guards the lazily launched browser.
	launchMu     sync.Mutex
	open         func(ctx context.Context) (PageOpener, error)
	opener       PageOpener
	failed       bool
	closeBrowser func()

	openTimeout time.Duration
	dir         string
	logger      output.LoggerPort
}

// liveTab is a page that is being opened (page == nil) or is open.
type liveTab struct {
	page   LivePage
	cancel context.CancelFunc
}

// NewLiveViewer launches the browser lazily, on the first task that exposes
// a live URL.
func NewLiveViewer(cfg BrowserConfig, dir string, logger output.LoggerPort) *LiveViewer {
	var adapter *BrowserAdapter
	launch := func(ctx context.Context) (PageOpener, error) {
		a, err := NewBrowserAdapter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		adapter = a
		return a, nil
	}
	v := newLiveViewer(launch, dir, logger)
	v.closeBrowser = func() {
		if adapter != nil {
			adapter.Close()
		}
	}
	if cfg.Timeout > 0 {
		v.openTimeout = 2 * cfg.Timeout
	}
	return v
}

func newLiveViewer(open func(ctx context.Context) (PageOpener, error), dir string, logger output.LoggerPort) *LiveViewer {
	return &LiveViewer{
		open:         open,
		tabs:         make(map[string]*liveTab),
		openTimeout:  openTimeout,
		dir:          dir,
		logger:       logger,
		closeBrowser: func() {},
	}
}

func (v *LiveViewer) TaskCreated(ctx context.Context, op, taskID string) {}

// TaskPolled starts opening the live URL once per task and returns at once.
func (v *LiveViewer) TaskPolled(ctx context.Context, details *entity.TaskDetails) {
	if details.LiveURL == "" || details.ID == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	if _, ok := v.tabs[details.ID]; ok {
		return
	}

	openCtx, cancel := context.WithTimeout(ctx, v.openTimeout)
	tab := &liveTab{cancel: cancel}
	v.tabs[details.ID] = tab

	v.wg.Add(1)
	go v.openTab(openCtx, details.ID, details.LiveURL, tab)
}

func (v *LiveViewer) openTab(ctx context.Context, taskID, url string, tab *liveTab) {
	defer v.wg.Done()
	defer tab.cancel()

	var page LivePage
	opener, err := v.ensureBrowser()
	if err == nil {
		page, err = opener.Open(ctx, url)
	}

	v.mu.Lock()
	current, ok := v.tabs[taskID]
	tracked := ok && current == tab && !v.closed
	if tracked {
		if err != nil {
			delete(v.tabs, taskID)
		} else {
			tab.page = page
		}
	}
	v.mu.Unlock()

	switch {
	case err != nil:
		if tracked {
			v.logger.Warn("Failed to open live view", "taskID", taskID, "error", err)
		}
	case !tracked:
		// the task ended while the page was loading
		_ = page.Close()
	default:
		v.logger.Info("Live view opened", "taskID", taskID, "url", url)
	}
}

// untrack forgets the task and returns its page when it was already open.
func (v *LiveViewer) untrack(taskID string) LivePage {
	v.mu.Lock()
	tab, ok := v.tabs[taskID]
	delete(v.tabs, taskID)
	var page LivePage
	if ok {
		page = tab.page
	}
	v.mu.Unlock()

	if !ok {
		return nil
	}
	tab.cancel()
	return page
}

func (v *LiveViewer) TaskFinished(ctx context.Context, result *entity.WaitResult) {
	page := v.untrack(result.TaskID)
	if page == nil {
		return
	}
	defer v.closePage(result.TaskID, page)

	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	path, err := v.saveScreenshot(shotCtx, page, result.TaskID)
	if err != nil {
		v.logger.Warn("Failed to save live view screenshot", "taskID", result.TaskID, "error", err)
		return
	}
	v.logger.Info("Live view screenshot saved", "taskID", result.TaskID, "path", path)
}

func (v *LiveViewer) TaskAbandoned(ctx context.Context, taskID string, err error) {
	if page := v.untrack(taskID); page != nil {
		v.closePage(taskID, page)
	}
}

func (v *LiveViewer) closePage(taskID string, page LivePage) {
	if err := page.Close(); err != nil {
		v.logger.Debug("Failed to close live view", "taskID", taskID, "error", err)
	}
}

// Close cancels pending opens, closes every open page and the browser.
func (v *LiveViewer) Close() {
	v.mu.Lock()
	v.closed = true
	tabs := v.tabs
	v.tabs = make(map[string]*liveTab)
	v.mu.Unlock()

	for id, tab := range tabs {
		tab.cancel()
		if tab.page != nil {
			v.closePage(id, tab.page)
		}
	}

	v.launchMu.Lock()
	defer v.launchMu.Unlock()
	v.failed = true
	v.closeBrowser()
}

func (v *LiveViewer) ensureBrowser() (PageOpener, error) {
	v.launchMu.Lock()
	defer v.launchMu.Unlock()

	if v.opener != nil {
		return v.opener, nil
	}
	if v.failed {
		return nil, errBrowserUnavailable
	}

	// Chrome outlives the task that triggered the launch.
	opener, err := v.open(context.Background())
	if err != nil {
		v.failed = true
		v.logger.Warn("Live view disabled: browser launch failed", "error", err)
		return nil, err
	}
	v.opener = opener
	return opener, nil
}

func (v *LiveViewer) saveScreenshot(ctx context.Context, page LivePage, taskID string) (string, error) {
	shot, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}

	path := filepath.Join(v.dir, filepath.Base(taskID)+".jpg")
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}
