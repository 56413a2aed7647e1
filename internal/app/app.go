package app

import (
	"fmt"
)

// Application bundles the pieces the commands and the TUI share: the loaded
// config, the logger, the HTTP client, and the session controller built on
// top of them.
type Application struct {
	Config  Config
	Logger  *Logger
	Client  *AnswerClient
	Session *Controller
	Mock    bool
}

// NewApplication wires everything from cfg. With mockMode set, queries are
// answered by an offline mock instead of the real service; the controller
// and everything above it behave identically.
func NewApplication(cfg Config, mockMode bool) (*Application, error) {
	var logger *Logger
	if cfg.LogFile != "" {
		l, err := OpenFileLogger(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger = l
	}

	client := NewAnswerClient(cfg.Endpoint, cfg.Timeout())
	var source querier = client
	if mockMode {
		source = NewMockClient()
	}
	dispatcher := NewDispatcher(source, logger)
	session := NewController(dispatcher, logger, cfg.Timeout(), cfg.HistoryLimit)

	logger.Info("application ready", "endpoint", cfg.Endpoint, "mock", mockMode)

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Session: session,
		Mock:    mockMode,
	}, nil
}

// Close releases what the application holds open, currently just the log
// file.
func (a *Application) Close() error {
	if a == nil {
		return nil
	}
	return a.Logger.Close()
}
