// Package outbox drains the transactional outbox. Commands enqueue effect
// rows inside their business transaction; the dispatcher polls for due jobs,
// delivers them, and retries failures with backoff.
package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"homesit/internal/infra/notify"
	"homesit/internal/infra/writerepo"
	"homesit/internal/pkg/clock"
	"homesit/internal/pkg/config"
	"homesit/internal/pkg/errs"
	"homesit/internal/usecase/shared"
)

var errUnknownJobKind = errs.New("unknown outbox job kind")

type Dispatcher struct {
	jobs     *writerepo.OutboxRepository
	notifier notify.Notifier
	mailer   notify.Mailer
	clock    clock.Clock
	cfg      config.OutboxConfig

	stop chan struct{}
	done chan struct{}
}

func NewDispatcher(
	jobs *writerepo.OutboxRepository,
	notifier notify.Notifier,
	mailer notify.Mailer,
	clk clock.Clock,
	cfg config.OutboxConfig,
) *Dispatcher {
	return &Dispatcher{
		jobs:     jobs,
		notifier: notifier,
		mailer:   mailer,
		clock:    clk,
		cfg:      cfg,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Stop blocks until the loop drains its
// current batch and exits.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

func (d *Dispatcher) drainOnce(ctx context.Context) {
	jobs, err := d.jobs.ClaimBatch(ctx, d.cfg.BatchSize)
	if err != nil {
		slog.Error("failed to claim outbox batch", "error", err.Error())
		return
	}

	for _, job := range jobs {
		if err := d.deliver(ctx, job); err != nil {
			d.recordFailure(ctx, job, err)
			continue
		}
		if err := d.jobs.MarkDone(ctx, job.ID); err != nil {
			slog.Error("failed to mark outbox job done",
				"job_id", job.ID, "error", err.Error())
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job shared.OutboxJob) error {
	switch job.Kind {
	case shared.JobKindNotification:
		var payload shared.NotificationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return errs.Wrap(err, "failed to decode notification payload")
		}
		return d.notifier.Deliver(ctx, payload)
	case shared.JobKindEmail:
		var payload shared.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return errs.Wrap(err, "failed to decode email payload")
		}
		return d.mailer.Send(ctx, payload)
	default:
		return errs.Wrapf(errUnknownJobKind, "kind %q", job.Kind)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, job shared.OutboxJob, deliverErr error) {
	retryAt := d.clock.Now().Add(retryDelay(job.Attempts))
	slog.Warn("outbox delivery failed",
		"job_id", job.ID,
		"kind", job.Kind,
		"topic", job.Topic,
		"attempt", job.Attempts+1,
		"retry_at", retryAt,
		"error", deliverErr.Error(),
	)
	if err := d.jobs.MarkFailed(ctx, job.ID, d.cfg.MaxAttempts, retryAt, deliverErr.Error()); err != nil {
		slog.Error("failed to record outbox failure",
			"job_id", job.ID, "error", err.Error())
	}
}

// retryDelay doubles per attempt: 30s, 1m, 2m, capped at 10m.
func retryDelay(attempts int) time.Duration {
	delay := 30 * time.Second << attempts
	if delay > 10*time.Minute {
		return 10 * time.Minute
	}
	return delay
}
