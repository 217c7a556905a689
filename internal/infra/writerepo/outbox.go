package writerepo

import (
	"context"
	"time"

	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
)

type OutboxRepository struct {
	db db.DBTX
}

func NewOutboxRepository(dbtx db.DBTX) *OutboxRepository {
	return &OutboxRepository{db: dbtx}
}

const enqueueJobQuery = `
INSERT INTO outbox_jobs (id, kind, topic, payload, status, run_at)
VALUES ($1, $2, $3, $4, 'pending', $5)`

func (r *OutboxRepository) Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx, enqueueJobQuery, uuid.New(), kind, topic, payload, runAt)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue outbox job", err)
	}
	return nil
}

// claimBatchQuery claims due pending jobs with SKIP LOCKED so concurrent
// dispatchers never double-deliver within a polling cycle.
const claimBatchQuery = `
UPDATE outbox_jobs SET
    status     = 'processing',
    claimed_at = now()
WHERE id IN (
    SELECT id FROM outbox_jobs
    WHERE status = 'pending' AND run_at <= now()
    ORDER BY run_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, topic, payload, attempts, run_at`

func (r *OutboxRepository) ClaimBatch(ctx context.Context, limit int) ([]shared.OutboxJob, error) {
	rows, err := r.db.Query(ctx, claimBatchQuery, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim outbox jobs", err)
	}
	defer rows.Close()

	var jobs []shared.OutboxJob
	for rows.Next() {
		var job shared.OutboxJob
		if err := rows.Scan(&job.ID, &job.Kind, &job.Topic, &job.Payload, &job.Attempts, &job.RunAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan outbox job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read outbox jobs", err)
	}
	return jobs, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox_jobs SET status = 'done', done_at = now() WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to mark outbox job done", err)
	}
	return nil
}

// MarkFailed reschedules the job with backoff, or dead-letters it once the
// attempt budget is spent.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, maxAttempts int, retryAt time.Time, lastError string) error {
	_, err := r.db.Exec(ctx, `
UPDATE outbox_jobs SET
    attempts   = attempts + 1,
    status     = CASE WHEN attempts + 1 >= $2 THEN 'dead' ELSE 'pending' END,
    run_at     = $3,
    last_error = $4
WHERE id = $1`,
		id, maxAttempts, retryAt, lastError)
	if err != nil {
		return infra.WrapRepoErr("failed to mark outbox job failed", err)
	}
	return nil
}
