package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/looopone/internal/core/domain"
)

// TaskQueue is the default Temporal task queue for report triage.
const TaskQueue = "report-triage"

// TriageRadiusMeters is how far from a report a container may be to receive
// the alert.
const TriageRadiusMeters = 300.0

// TriageInput is the input for the triage workflow.
type TriageInput struct {
	ReportID    string
	Category    domain.ReportCategory
	Lat         float64
	Lon         float64
	Description string
}

// TriageInputFromReport builds the workflow input for an accepted report.
func TriageInputFromReport(r *domain.Report) TriageInput {
	return TriageInput{
		ReportID:    r.ID,
		Category:    r.Category,
		Lat:         r.Location.Lat,
		Lon:         r.Location.Lon,
		Description: r.Description,
	}
}

// ReportTriageWorkflow attaches an alert to the container nearest a citizen
// report and publishes it. If publishing fails the alert is deleted again
// (saga compensation).
func ReportTriageWorkflow(ctx workflow.Context, input TriageInput) (int64, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting report triage", "report", input.ReportID, "category", input.Category)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: pick the container the alert belongs to
	var containerID int64
	err := workflow.ExecuteActivity(ctx, "FindTriageTarget", input).Get(ctx, &containerID)
	if err != nil {
		return 0, err
	}

	// Step 2: raise the alert
	var alert domain.Alert
	err = workflow.ExecuteActivity(ctx, "RaiseAlert", input, containerID).Get(ctx, &alert)
	if err != nil {
		return 0, err
	}

	// Step 3: notify the dashboard
	err = workflow.ExecuteActivity(ctx, "PublishAlert", alert).Get(ctx, nil)
	if err != nil {
		logger.Warn("alert publish failed, compensating", "alert", alert.ID, "error", err)
		_ = workflow.ExecuteActivity(ctx, "DeleteAlert", alert.ID).Get(ctx, nil)
		return 0, err
	}

	logger.Info("Report triaged", "report", input.ReportID, "alert", alert.ID, "container", containerID)
	return alert.ID, nil
}
