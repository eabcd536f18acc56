package di

import (
	"fmt"
	"io"
	"os"

	"shopping-agent/internal/adapter/httpapi"
	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/application/service"
	"shopping-agent/internal/infrastructure/browser/rod"
	"shopping-agent/internal/infrastructure/browseruse"
	"shopping-agent/internal/infrastructure/config"
	"shopping-agent/internal/infrastructure/llm/openrouter"
	"shopping-agent/internal/infrastructure/logger"
	"shopping-agent/internal/infrastructure/receipt"
	"shopping-agent/internal/infrastructure/userinteraction"
	"shopping-agent/internal/usecase/intent"
	"shopping-agent/internal/usecase/poller"
	"shopping-agent/internal/usecase/shopping"
)

type Container struct {
	Config    *config.Config
	Logger    output.LoggerPort
	Client    *browseruse.Client
	Assistant *shopping.Assistant
	Chat      *intent.Router
	Console   *userinteraction.Console

	liveView *rod.LiveViewer
}

// Options lets callers replace the terminal and the logger; zero values
// mean stdout and a log file under cfg.Log.Dir.
type Options struct {
	Out    io.Writer
	Logger output.LoggerPort
}

func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	log := opts.Logger
	if log == nil {
		fileLog, err := logger.NewLoggerAdapter(logger.Config{
			Name:  config.AppName,
			Dir:   cfg.Log.Dir,
			Level: cfg.Log.Level,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = fileLog
	}

	clientCfg := browseruse.DefaultConfig(cfg.BrowserUse.APIKey)
	if cfg.BrowserUse.BaseURL != "" {
		clientCfg.BaseURL = cfg.BrowserUse.BaseURL
	}
	clientCfg.HTTPTimeout = cfg.BrowserUse.HTTPTimeout
	clientCfg.Logger = log.WithField("component", "browseruse")
	client, err := browseruse.NewClient(clientCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser-use client: %w", err)
	}

	c := &Container{
		Config:  cfg,
		Logger:  log,
		Client:  client,
		Console: userinteraction.NewConsole(out),
	}

	observers := []output.ProgressPort{userinteraction.NewConsoleProgress(out)}
	if cfg.LiveView.Enabled {
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = cfg.LiveView.Headless
		c.liveView = rod.NewLiveViewer(browserCfg, cfg.LiveView.Dir, log.WithField("component", "liveview"))
		observers = append(observers, c.liveView)
	}
	progress := userinteraction.NewMultiProgress(observers...)

	waiter := poller.New(client, progress, log.WithField("component", "poller"))

	c.Assistant = shopping.New(shopping.Config{
		SearchMaxResults: cfg.Search.MaxResults,
		PollInterval:     cfg.Poll.Interval,
		Timeout:          cfg.Poll.Timeout,
		PurchaseTimeout:  cfg.Poll.PurchaseTimeout,
		StopOnTimeout:    cfg.Poll.StopOnTimeout,
		Stores:           cfg.Search.Stores,
	}, client, waiter, service.NewHistoryTracker(), progress, log.WithField("component", "shopping"))

	if cfg.Receipts.Dir != "" {
		c.Assistant.WithReceipts(receipt.NewStore(cfg.Receipts.Dir, log.WithField("component", "receipts")), client)
	}

	var llm output.LLMPort
	if cfg.LLMEnabled() {
		llmCfg := openrouter.DefaultConfig(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model)
		if cfg.OpenRouter.BaseURL != "" {
			llmCfg.BaseURL = cfg.OpenRouter.BaseURL
		}
		llmCfg.Logger = log.WithField("component", "openrouter")
		llm = openrouter.NewOpenRouterAdapter(llmCfg)
	}
	c.Chat = intent.New(c.Assistant, llm, log.WithField("component", "chat"))

	return c, nil
}

// HTTPServer builds the API server on cfg.Server.Addr.
func (c *Container) HTTPServer() *httpapi.Server {
	status := httpapi.Status{
		Service:     config.AppName,
		BrowserUse:  c.Config.BrowserUse.APIKey != "",
		LLM:         c.Config.LLMEnabled(),
		LiveView:    c.liveView != nil,
		Receipts:    c.Config.Receipts.Dir != "",
		Environment: c.Config.AppEnv,
	}
	handler := httpapi.NewHandler(c.Assistant, c.Chat, c.Logger.WithField("component", "http"), status)
	router := httpapi.NewRouter(handler, httpapi.NewAccessLogger(config.AppName))
	return httpapi.NewServer(c.Config.Server.Addr, router, c.Logger)
}

func (c *Container) Close() {
	if c.liveView != nil {
		c.liveView.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
