package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"reelforge/internal/config"
)

// NewJobRequest carries the submission parameters for a new job.
type NewJobRequest struct {
	Topic         string
	Niche         string
	Language      string
	Voice         string
	LengthSeconds int
	Publish       bool
}

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to the job database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewJob inserts a freshly submitted job in the queued state.
func (s *Store) NewJob(ctx context.Context, req NewJobRequest) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            topic, niche, language, voice, length_seconds, publish,
            status, attempt, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Topic,
		nullableString(req.Niche),
		nullableString(req.Language),
		nullableString(req.Voice),
		req.LengthSeconds,
		boolToInt(req.Publish),
		StatusQueued,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns nil when no row matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET topic = ?, niche = ?, language = ?, voice = ?, length_seconds = ?,
             publish = ?, status = ?, attempt = ?, work_dir = ?, script_json = ?,
             narration_file = ?, captions_file = ?, video_file = ?, thumbnail_file = ?,
             video_id = ?, error_message = ?, metadata_json = ?, progress_stage = ?,
             progress_message = ?, updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		job.Topic,
		nullableString(job.Niche),
		nullableString(job.Language),
		nullableString(job.Voice),
		job.LengthSeconds,
		boolToInt(job.Publish),
		job.Status,
		job.Attempt,
		nullableString(job.WorkDir),
		nullableString(job.ScriptJSON),
		nullableString(job.NarrationFile),
		nullableString(job.CaptionsFile),
		nullableString(job.VideoFile),
		nullableString(job.ThumbnailFile),
		nullableString(job.VideoID),
		nullableString(job.ErrorMessage),
		nullableString(job.MetadataJSON),
		nullableString(job.ProgressStage),
		nullableString(job.ProgressMsg),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.LastHeartbeat),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// Heartbeat refreshes the liveness marker for an in-flight job.
func (s *Store) Heartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// JobsByStatus returns jobs matching a status ordered by creation time.
func (s *Store) JobsByStatus(ctx context.Context, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// List returns jobs filtered by status set (or all jobs when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// RetryFailed resets failed jobs back to queued so they can be resubmitted.
// With ids it targets specific jobs; without, every failed job. Returns the
// ids that were reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) ([]int64, error) {
	query := `SELECT id FROM jobs WHERE status = ?`
	args := []any{StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select failed jobs: %w", err)
	}
	defer rows.Close()

	var reset []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		reset = append(reset, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range reset {
		_, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs
             SET status = ?, attempt = 0, error_message = NULL, progress_stage = NULL,
                 progress_message = NULL, last_heartbeat = NULL, updated_at = ?
             WHERE id = ?`,
			StatusQueued, now, id,
		)
		if err != nil {
			return nil, fmt.Errorf("reset job %d: %w", id, err)
		}
	}
	return reset, nil
}

// Clear removes jobs in the given statuses (or every job when none are
// provided) and returns the number of rows deleted.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if len(statuses) == 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM jobs`)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		res, err = s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status IN (`+placeholders+`)`, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusQueued:
			health.Queued += count
		case StatusPendingUpload:
			health.PendingUpload += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		default:
			if _, ok := inFlightStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
