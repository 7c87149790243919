package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/chemtrade-erp/chemtrade-erp/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceReconcile pushes locally persisted invoices into postgres.
	TaskInvoiceReconcile = "invoice:reconcile"
	// TaskAlertsRecompute re-derives stock and expiry notifications.
	TaskAlertsRecompute = "alerts:recompute"
)

// InvoiceReconcilePayload parameterizes a reconciliation run.
type InvoiceReconcilePayload struct {
	Reason string `json:"reason"`
}

// NewInvoiceReconcileTask constructs an Asynq task.
func NewInvoiceReconcileTask(payload InvoiceReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceReconcile, data), nil
}

// NewAlertsRecomputeTask constructs an Asynq task with no payload.
func NewAlertsRecomputeTask() *asynq.Task {
	return asynq.NewTask(TaskAlertsRecompute, nil)
}

// InvoiceReconciler drains the invoice fallback store.
type InvoiceReconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// InvoiceReconcileJob handles TaskInvoiceReconcile tasks.
type InvoiceReconcileJob struct {
	Invoices InvoiceReconciler
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Handle processes one reconciliation run.
func (j *InvoiceReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Invoices == nil {
		return errors.New("invoice reconcile: handler not configured")
	}
	var payload InvoiceReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	moved, err := j.Invoices.Reconcile(ctx)
	if err != nil {
		j.observe("error")
		j.Logger.Warn("invoice reconciliation failed", slog.Any("error", err))
		return err
	}
	j.observe("ok")
	if moved > 0 {
		j.Logger.Info("invoices reconciled", slog.Int("moved", moved), slog.String("reason", payload.Reason))
	}
	return nil
}

func (j *InvoiceReconcileJob) observe(outcome string) {
	if j.Metrics != nil {
		j.Metrics.ObserveJob(TaskInvoiceReconcile, outcome)
	}
}

// AlertsRecomputeJob handles TaskAlertsRecompute tasks.
type AlertsRecomputeJob struct {
	Products interface {
		Refresh(ctx context.Context) error
	}
	Alerts interface {
		Recompute(ctx context.Context)
	}
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Handle refreshes the product snapshot then recomputes notifications.
func (j *AlertsRecomputeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Products == nil || j.Alerts == nil {
		return errors.New("alerts recompute: handler not configured")
	}
	if err := j.Products.Refresh(ctx); err != nil {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskAlertsRecompute, "error")
		}
		j.Logger.Warn("product refresh before recompute failed", slog.Any("error", err))
		return err
	}
	j.Alerts.Recompute(ctx)
	if j.Metrics != nil {
		j.Metrics.ObserveJob(TaskAlertsRecompute, "ok")
	}
	return nil
}
