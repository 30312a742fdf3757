package daemon

import (
	"context"
	"fmt"
	"os"
	"runtime"

	kardianos "github.com/kardianos/service"
	"github.com/solveya/console/internal/config"
	"github.com/solveya/console/pkg/logger"
)

// Manager wraps kardianos/service so the watch-mode console can run as an
// installed OS service.
type Manager struct {
	cfg       *config.Config
	app       *Application
	appCtx    context.Context
	appCancel context.CancelFunc
}

func NewManager(cfg *config.Config, app *Application) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:       cfg,
		app:       app,
		appCtx:    ctx,
		appCancel: cancel,
	}
}

func (m *Manager) newService() (kardianos.Service, error) {
	if m.app == nil {
		return nil, fmt.Errorf("application cannot be nil")
	}
	return kardianos.New(m, &kardianos.Config{
		Name:        m.cfg.ServiceName(),
		DisplayName: m.cfg.ServiceDisplayName(),
		Description: m.cfg.ServiceDescription(),
	})
}

// kardianos.Interface implementation

func (m *Manager) Start(s kardianos.Service) error {
	logger.Log.Info("Starting service", "service", s.String(), "platform", s.Platform())
	go m.app.Run(m.appCtx)
	return nil
}

func (m *Manager) Stop(s kardianos.Service) error {
	logger.Log.Info("Stopping service", "service", s.String())
	m.appCancel()
	return nil
}

func (m *Manager) Install() error {
	if err := m.createDropFolder(); err != nil {
		return fmt.Errorf("failed to create drop folder: %w", err)
	}
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		if runtime.GOOS == "windows" {
			return fmt.Errorf("failed to install Windows service (requires administrator privileges): %w", err)
		}
		return fmt.Errorf("failed to install service: %w", err)
	}
	return nil
}

func (m *Manager) Uninstall() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Stop(); err != nil {
		logger.Log.Warn("Service was not running", "err", err)
	}
	return s.Uninstall()
}

// Run blocks until the service is stopped.
func (m *Manager) Run() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Run()
}

func (m *Manager) createDropFolder() error {
	dropPath := m.cfg.DropFolder()
	if dropPath == "" {
		return fmt.Errorf("drop folder path is not configured")
	}
	if info, err := os.Stat(dropPath); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("drop folder path exists but is not a directory: %s", dropPath)
		}
		return nil
	}
	if err := os.MkdirAll(dropPath, 0o755); err != nil {
		return err
	}
	logger.Log.Info("Created drop folder", "path", dropPath)
	return nil
}
