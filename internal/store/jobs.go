package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/piwi3910/barcut/internal/model"
)

const jobColumns = `id, kind, queue, user, status, payload, output, error, attempts, enqueued_at, started_at, ended_at`

// CreateJob persists a new job.
func (s *Store) CreateJob(ctx context.Context, j model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Kind, j.Queue, j.User, string(j.Status), j.Payload, j.Output, j.Error, j.Attempts,
		formatTime(j.EnqueuedAt), nullTime(j.StartedAt), nullTime(j.EndedAt))
	return err
}

// GetJob loads a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return j, err
}

// ClaimNextJob atomically moves the oldest queued job of a queue to started
// and counts the attempt. ok is false when the queue is empty.
func (s *Store) ClaimNextJob(ctx context.Context, queue string, at time.Time) (job model.Job, ok bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE queue = ? AND status = ? ORDER BY enqueued_at, rowid LIMIT 1`,
			queue, string(model.JobQueued)).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, started_at = ?, attempts = attempts + 1, error = '' WHERE id = ?`,
			string(model.JobStarted), formatTime(at), id); err != nil {
			return err
		}
		job, err = scanJob(tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	return job, ok, err
}

// FinishJob records a successful result.
func (s *Store) FinishJob(ctx context.Context, id string, output []byte, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, output = ?, ended_at = ? WHERE id = ?`,
		string(model.JobFinished), output, formatTime(at), id)
	if err != nil {
		return err
	}
	return expectRow(res, id, ErrJobNotFound)
}

// FailJob records a failure message.
func (s *Store) FailJob(ctx context.Context, id, message string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, ended_at = ? WHERE id = ?`,
		string(model.JobFailed), message, formatTime(at), id)
	if err != nil {
		return err
	}
	return expectRow(res, id, ErrJobNotFound)
}

// RequeueJob puts an interrupted job back into the queued state.
func (s *Store) RequeueJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = NULL WHERE id = ?`, string(model.JobQueued), id)
	if err != nil {
		return err
	}
	return expectRow(res, id, ErrJobNotFound)
}

// PendingJobs returns the jobs of a queue that are queued or were started but
// never completed, oldest first.
func (s *Store) PendingJobs(ctx context.Context, queue string) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE queue = ? AND status IN (?, ?) ORDER BY enqueued_at, rowid`,
		queue, string(model.JobQueued), string(model.JobStarted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (model.Job, error) {
	var (
		j                model.Job
		status, enqueued string
		started, ended   sql.NullString
	)
	err := row.Scan(&j.ID, &j.Kind, &j.Queue, &j.User, &status, &j.Payload, &j.Output, &j.Error,
		&j.Attempts, &enqueued, &started, &ended)
	if err != nil {
		return model.Job{}, err
	}
	j.Status = model.JobStatus(status)
	j.EnqueuedAt = parseTime(enqueued)
	j.StartedAt = timePtr(started)
	j.EndedAt = timePtr(ended)
	return j, nil
}
