package daemon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/solveya/console/internal/api"
	"github.com/solveya/console/internal/channel"
	"github.com/solveya/console/internal/config"
	"github.com/solveya/console/internal/jobs"
	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/internal/watcher"
	"github.com/solveya/console/pkg/logger"
)

// Application is the watch-mode console: it keeps the shared telemetry
// channel connected, watches the drop folder and submits every settled
// artifact to the engine, following each job to its terminal state.
type Application struct {
	cfg        *config.Config
	client     *api.Client
	telemetry  *channel.Channel
	controller *jobs.Controller
	watcher    *watcher.Watcher
}

func NewApplication(cfg *config.Config) *Application {
	client := api.NewClient(cfg.ServerURL(), cfg.HTTPTimeout())
	return &Application{
		cfg:        cfg,
		client:     client,
		telemetry:  channel.Shared(cfg),
		controller: jobs.NewController(client, cfg.PollInterval()),
	}
}

func (app *Application) Run(appCtx context.Context) {
	app.telemetry.Connect()
	unsubscribe := app.telemetry.Subscribe(app.logTelemetry)
	defer unsubscribe()

	w, err := watcher.NewWatcher(app.cfg.DropFolder(), watcher.DefaultFilter(), appCtx)
	if err != nil {
		logger.Log.Error("Failed to create drop folder watcher", "err", err)
	} else if err := w.Start(); err != nil {
		logger.Log.Error("Failed to start drop folder watcher", "path", app.cfg.DropFolder(), "err", err)
	} else {
		app.watcher = w
	}

	go app.healthProbeLoop(appCtx)
	if app.watcher != nil {
		go app.watcherErrorLoop(appCtx, app.watcher)
		app.submitLoop(appCtx)
	} else {
		<-appCtx.Done()
	}
	app.Shutdown()
}

func (app *Application) Shutdown() {
	if app.watcher != nil {
		app.watcher.Stop()
		app.watcher = nil
	}
	app.controller.Close()
	app.telemetry.Disconnect()
}

func (app *Application) submitLoop(appCtx context.Context) {
	for {
		select {
		case <-appCtx.Done():
			return
		case artifact, ok := <-app.watcher.Artifacts():
			if !ok {
				return
			}
			app.submitArtifact(appCtx, artifact)
		}
	}
}

// submitArtifact uploads one artifact and blocks until its job settles. One
// artifact at a time: the controller tracks a single job, and the drop folder
// queue buffers the rest.
func (app *Application) submitArtifact(appCtx context.Context, artifact watcher.Artifact) {
	f, err := os.Open(artifact.Path)
	if err != nil {
		logger.Log.Error("Failed to open artifact", "path", artifact.Path, "err", err)
		return
	}
	defer f.Close()

	settled := make(chan jobs.Snapshot, 1)
	unsubscribe := app.controller.Subscribe(func(snap jobs.Snapshot) {
		if snap.Loading {
			return
		}
		select {
		case settled <- snap:
		default:
		}
	})
	defer unsubscribe()

	logger.Log.Info("Submitting artifact", "path", artifact.Path)
	if err := app.controller.Submit(appCtx, filepath.Base(artifact.Path), f); err != nil {
		logger.Log.Error("Artifact submission failed", "path", artifact.Path, "err", err)
		return
	}

	select {
	case <-appCtx.Done():
		return
	case snap := <-settled:
		app.logOutcome(artifact.Path, snap)
	}
}

func (app *Application) logOutcome(path string, snap jobs.Snapshot) {
	switch {
	case snap.Err != "":
		logger.Log.Error("Job tracking ended with error", "path", path, "err", snap.Err)
	case snap.Job != nil && snap.Job.Status == models.JobFailed:
		logger.Log.Warn("Diagnostic job failed", "path", path, "job_id", snap.Job.ID)
	case snap.Job != nil:
		anomalies := 0
		if result := snap.Result(); result != nil {
			for _, a := range result.AnomalyResults {
				if a.IsAnomaly {
					anomalies++
				}
			}
		}
		logger.Log.Info("Diagnostic job completed", "path", path, "job_id", snap.Job.ID, "anomalies", anomalies)
	}
}

func (app *Application) logTelemetry(msg models.ChannelMessage) {
	if msg.Telemetry == nil {
		return
	}
	logger.Log.Debug("Engine telemetry",
		"cpu", msg.Telemetry.CPUUsage,
		"memory", msg.Telemetry.MemoryUsage,
		"active_jobs", msg.Telemetry.ActiveJobs,
		"queue_depth", msg.Telemetry.QueueDepth,
	)
}

// healthProbeLoop periodically checks engine health over HTTP, independent of
// the telemetry feed.
func (app *Application) healthProbeLoop(appCtx context.Context) {
	ticker := time.NewTicker(app.cfg.HealthProbeTimer())
	defer ticker.Stop()
	for {
		select {
		case <-appCtx.Done():
			return
		case <-ticker.C:
			health, err := app.client.Health(appCtx)
			if err != nil {
				logger.Log.Error("Engine health probe failed", "err", err)
				continue
			}
			if health.Status != models.HealthHealthy {
				logger.Log.Warn("Engine health degraded", "status", health.Status, "cpu", health.Telemetry.CPUUsage)
			}
		}
	}
}

func (app *Application) watcherErrorLoop(appCtx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-appCtx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			logger.Log.Error("Drop folder watcher error", "err", err)
		}
	}
}
