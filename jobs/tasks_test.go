package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	moved int
	err   error
	calls int
}

func (s *stubReconciler) Reconcile(context.Context) (int, error) {
	s.calls++
	return s.moved, s.err
}

type stubRefresher struct {
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.calls++
	return s.err
}

type stubRecomputer struct {
	calls int
}

func (s *stubRecomputer) Recompute(context.Context) {
	s.calls++
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvoiceReconcileJob(t *testing.T) {
	rec := &stubReconciler{moved: 2}
	job := &InvoiceReconcileJob{Invoices: rec, Logger: discard()}

	task, err := NewInvoiceReconcileTask(InvoiceReconcilePayload{Reason: "fallback-write"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, rec.calls)
}

func TestInvoiceReconcileJobPropagatesFailure(t *testing.T) {
	rec := &stubReconciler{err: errors.New("connection refused")}
	job := &InvoiceReconcileJob{Invoices: rec, Logger: discard()}

	task, err := NewInvoiceReconcileTask(InvoiceReconcilePayload{})
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestInvoiceReconcileJobSkipsRetryOnBadPayload(t *testing.T) {
	job := &InvoiceReconcileJob{Invoices: &stubReconciler{}, Logger: discard()}

	err := job.Handle(context.Background(), asynq.NewTask(TaskInvoiceReconcile, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAlertsRecomputeJobRefreshesThenRecomputes(t *testing.T) {
	refresher := &stubRefresher{}
	recomputer := &stubRecomputer{}
	job := &AlertsRecomputeJob{Products: refresher, Alerts: recomputer, Logger: discard()}

	require.NoError(t, job.Handle(context.Background(), NewAlertsRecomputeTask()))
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, 1, recomputer.calls)
}

func TestAlertsRecomputeJobStopsOnRefreshFailure(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("connection refused")}
	recomputer := &stubRecomputer{}
	job := &AlertsRecomputeJob{Products: refresher, Alerts: recomputer, Logger: discard()}

	assert.Error(t, job.Handle(context.Background(), NewAlertsRecomputeTask()))
	assert.Equal(t, 0, recomputer.calls)
}
