package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/solveya/console/internal/api"
	"github.com/solveya/console/internal/config"
	"github.com/solveya/console/internal/daemon"
	"github.com/solveya/console/internal/jobs"
	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/logger"
)

func main() {
	cfg := config.New()
	logger.Init(cfg.LogFile())

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "submit":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		err = runSubmit(cfg, os.Args[2])
	case "health":
		err = runHealth(cfg)
	case "watch":
		app := daemon.NewApplication(cfg)
		err = daemon.NewManager(cfg, app).Run()
	case "install":
		app := daemon.NewApplication(cfg)
		if err = daemon.NewManager(cfg, app).Install(); err == nil {
			color.Green("Service installed")
		}
	case "uninstall":
		app := daemon.NewApplication(cfg)
		if err = daemon.NewManager(cfg, app).Uninstall(); err == nil {
			color.Green("Service uninstalled")
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: solveya-console <submit FILE | health | watch | install | uninstall>")
}

// runSubmit uploads one artifact and follows the job to its terminal state,
// printing each status transition as it happens.
func runSubmit(cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	client := api.NewClient(cfg.ServerURL(), cfg.HTTPTimeout())
	controller := jobs.NewController(client, cfg.PollInterval())
	defer controller.Close()

	settled := make(chan jobs.Snapshot, 1)
	var lastStatus models.JobStatus
	unsubscribe := controller.Subscribe(func(snap jobs.Snapshot) {
		if snap.Job != nil && snap.Job.Status != lastStatus {
			lastStatus = snap.Job.Status
			fmt.Printf("  %s\n", snap.Job.Status)
		}
		if !snap.Loading {
			select {
			case settled <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	fmt.Printf("Submitting %s\n", path)
	if err := controller.Submit(context.Background(), path, f); err != nil {
		return err
	}

	snap := <-settled
	switch {
	case snap.Err != "":
		return fmt.Errorf("%s", snap.Err)
	case snap.Job != nil && snap.Job.Status == models.JobFailed:
		color.Red("Job %s failed", snap.Job.ID)
	case snap.Job != nil:
		color.Green("Job %s completed", snap.Job.ID)
		printResult(snap.Result())
	}
	return nil
}

func printResult(result *models.DiagnosticResult) {
	if result == nil {
		return
	}
	if p := result.EntropyProfile; p != nil {
		fmt.Printf("  entropy: global=%.3f rate=%.3f window mean=%.3f\n",
			p.GlobalEntropy, p.EntropyRate, p.WindowedEntropyMean)
	}
	for _, a := range result.AnomalyResults {
		if a.IsAnomaly {
			color.Red("  %s: ANOMALY (score %.3f)", a.DetectorName, a.Score)
		} else {
			fmt.Printf("  %s: clean (score %.3f)\n", a.DetectorName, a.Score)
		}
	}
}

func runHealth(cfg *config.Config) error {
	client := api.NewClient(cfg.ServerURL(), cfg.HTTPTimeout())
	health, err := client.Health(context.Background())
	if err != nil {
		return err
	}
	statusLine := fmt.Sprintf("Engine %s (v%s)", health.Status, health.Version)
	switch health.Status {
	case models.HealthHealthy:
		color.Green(statusLine)
	case models.HealthDegraded:
		color.Yellow(statusLine)
	default:
		color.Red(statusLine)
	}
	t := health.Telemetry
	fmt.Printf("  cpu=%.1f%% memory=%.1f%% active_jobs=%d queue_depth=%d\n",
		t.CPUUsage, t.MemoryUsage, t.ActiveJobs, t.QueueDepth)
	return nil
}
