package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/joho/godotenv"

	natsadapter "github.com/samirrijal/looopone/internal/adapters/nats"
	"github.com/samirrijal/looopone/internal/adapters/postgres"
	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/pkg/config"
	"github.com/samirrijal/looopone/internal/pkg/logging"
	"github.com/samirrijal/looopone/internal/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("looopone-dispatcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}

	w := worker.New(c, taskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ReportTriageWorkflow)
	w.RegisterActivity(&workflows.TriageActivities{
		Containers: postgres.NewContainerRepo(db),
		Alerts:     postgres.NewAlertRepo(db),
		Publisher:  pub,
	})

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeReports(ctx, func(ctx context.Context, r *domain.Report) error {
		// The report ID doubles as workflow ID so redeliveries do not
		// triage the same report twice.
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:                    r.ID,
			TaskQueue:             taskQueue,
			WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		}, workflows.ReportTriageWorkflow, workflows.TriageInputFromReport(r))
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			slog.Debug("report already triaged", "report", r.ID)
			return nil
		}
		if err != nil {
			slog.Error("start triage workflow", "report", r.ID, "error", err)
			return err
		}
		slog.Info("triage started", "report", r.ID, "run", run.GetRunID())
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe reports: %v", err)
	}

	slog.Info("dispatcher started", "task_queue", taskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
