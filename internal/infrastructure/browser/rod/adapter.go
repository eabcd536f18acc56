package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/screenshot"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const defaultTimeout = 15 * time.Second

var ErrBrowserClosed = errors.New("browser is closed")

// BrowserAdapter управляет локальным Chrome, в котором открываются live-сессии
// удалённых задач.
type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher // nil, если подключились к уже запущенному браузеру
	timeout  time.Duration
	closed   bool
}

type BrowserConfig struct {
	Headless  bool
	NoSandbox bool
	Timeout   time.Duration
	// ControlURL подключает к уже запущенному Chrome вместо запуска нового.
	ControlURL string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless: false,
		Timeout:  defaultTimeout,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var l *launcher.Launcher
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l = launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox).
			Delete("use-mock-keychain")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
			l.Cleanup()
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}, nil
}

// Open создаёт вкладку с url и ждёт загрузки страницы.
func (b *BrowserAdapter) Open(ctx context.Context, url string) (LivePage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrowserClosed
	}

	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	if err := page.Timeout(b.timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("page load failed: %w", err)
	}

	return &rodPage{page: page, timeout: b.timeout}, nil
}

// Close корректно закрывает и браузер, и процесс Chrome
func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (p *rodPage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := p.page.Context(ctx).Timeout(p.timeout).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	return screenshot.Downscale(imgBytes)
}

// Close не зависит от контекста, в котором вкладку открыли.
func (p *rodPage) Close() error {
	return p.page.Context(context.Background()).Close()
}

// BrowserAvailable reports whether a local Chrome can be launched.
func BrowserAvailable() bool {
	_, has := launcher.LookPath()
	return has
}
