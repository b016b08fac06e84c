package jobstore

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, topic, niche, language, voice, length_seconds, publish, status, attempt, work_dir, script_json, narration_file, captions_file, video_file, thumbnail_file, video_id, error_message, metadata_json, progress_stage, progress_message, created_at, updated_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            int64
		topic         string
		niche         sql.NullString
		language      sql.NullString
		voice         sql.NullString
		lengthSeconds sql.NullInt64
		publish       sql.NullInt64
		statusStr     string
		attempt       sql.NullInt64
		workDir       sql.NullString
		scriptJSON    sql.NullString
		narrationFile sql.NullString
		captionsFile  sql.NullString
		videoFile     sql.NullString
		thumbnailFile sql.NullString
		videoID       sql.NullString
		errorMessage  sql.NullString
		metadata      sql.NullString
		progressStage sql.NullString
		progressMsg   sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		heartbeatRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&topic,
		&niche,
		&language,
		&voice,
		&lengthSeconds,
		&publish,
		&statusStr,
		&attempt,
		&workDir,
		&scriptJSON,
		&narrationFile,
		&captionsFile,
		&videoFile,
		&thumbnailFile,
		&videoID,
		&errorMessage,
		&metadata,
		&progressStage,
		&progressMsg,
		&createdRaw,
		&updatedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:            id,
		Topic:         topic,
		Niche:         niche.String,
		Language:      language.String,
		Voice:         voice.String,
		LengthSeconds: int(lengthSeconds.Int64),
		Publish:       publish.Int64 != 0,
		Status:        Status(statusStr),
		Attempt:       int(attempt.Int64),
		WorkDir:       workDir.String,
		ScriptJSON:    scriptJSON.String,
		NarrationFile: narrationFile.String,
		CaptionsFile:  captionsFile.String,
		VideoFile:     videoFile.String,
		ThumbnailFile: thumbnailFile.String,
		VideoID:       videoID.String,
		ErrorMessage:  errorMessage.String,
		MetadataJSON:  metadata.String,
		ProgressStage: progressStage.String,
		ProgressMsg:   progressMsg.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
