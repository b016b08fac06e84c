package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const pendingUploadColumns = "id, job_id, video_path, thumbnail_path, title, description, tags_json, publish, reason, created_at"

// SavePendingUpload records a finished video that was diverted instead of
// uploaded.
func (s *Store) SavePendingUpload(ctx context.Context, pending *PendingUpload) error {
	if pending == nil {
		return errors.New("pending upload is nil")
	}
	now := time.Now().UTC()
	pending.CreatedAt = now

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pending_uploads (
            job_id, video_path, thumbnail_path, title, description,
            tags_json, publish, reason, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pending.JobID,
		pending.VideoPath,
		nullableString(pending.ThumbnailPath),
		pending.Title,
		nullableString(pending.Description),
		nullableString(pending.TagsJSON),
		boolToInt(pending.Publish),
		nullableString(pending.Reason),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert pending upload: %w", err)
	}
	pending.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// SetTags encodes tags onto the record before saving.
func (p *PendingUpload) SetTags(tags []string) {
	if len(tags) == 0 {
		p.TagsJSON = ""
		return
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return
	}
	p.TagsJSON = string(encoded)
}

// ListPendingUploads returns pending uploads ordered by creation time.
func (s *Store) ListPendingUploads(ctx context.Context) ([]*PendingUpload, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pendingUploadColumns+` FROM pending_uploads ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	defer rows.Close()

	var pendings []*PendingUpload
	for rows.Next() {
		pending, err := scanPendingUpload(rows)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending)
	}
	return pendings, rows.Err()
}

// PendingUploadForJob returns the most recent pending upload for a job, or
// nil when none exists.
func (s *Store) PendingUploadForJob(ctx context.Context, jobID int64) (*PendingUpload, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+pendingUploadColumns+` FROM pending_uploads WHERE job_id = ? ORDER BY id DESC LIMIT 1`,
		jobID,
	)
	pending, err := scanPendingUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending upload for job: %w", err)
	}
	return pending, nil
}

// DeletePendingUpload removes a pending upload record, typically after a
// successful manual upload.
func (s *Store) DeletePendingUpload(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending upload: %w", err)
	}
	return nil
}

func scanPendingUpload(scanner interface{ Scan(dest ...any) error }) (*PendingUpload, error) {
	var (
		id            int64
		jobID         int64
		videoPath     string
		thumbnailPath sql.NullString
		title         string
		description   sql.NullString
		tagsJSON      sql.NullString
		publish       sql.NullInt64
		reason        sql.NullString
		createdRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&jobID,
		&videoPath,
		&thumbnailPath,
		&title,
		&description,
		&tagsJSON,
		&publish,
		&reason,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	pending := &PendingUpload{
		ID:            id,
		JobID:         jobID,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath.String,
		Title:         title,
		Description:   description.String,
		TagsJSON:      tagsJSON.String,
		Publish:       publish.Int64 != 0,
		Reason:        reason.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		pending.CreatedAt = created
	}
	return pending, nil
}
