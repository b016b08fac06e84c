package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/jobstore"
	"reelforge/internal/language"
	"reelforge/internal/logging"
	"reelforge/internal/script"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const (
	uploadRetryAttempts = 5
	uploadRetryBase     = 2 * time.Second
	uploadRetryCap      = 60 * time.Second

	thumbnailRetryAttempts = 3
	thumbnailRetryBase     = 2 * time.Second
	thumbnailRetryCap      = 10 * time.Second
)

// Uploader is the pipeline stage that publishes a composed video. Jobs
// without usable credentials are parked as pending uploads instead.
type Uploader struct {
	cfg    config.Upload
	store  *jobstore.Store
	client *http.Client
	logger *slog.Logger
	sleep  func(time.Duration)
}

func NewUploader(cfg config.Upload, store *jobstore.Store, logger *slog.Logger) *Uploader {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Uploader{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "upload"),
	}
}

// WithSleep overrides retry sleeps, used by tests.
func (u *Uploader) WithSleep(sleep func(time.Duration)) *Uploader {
	u.sleep = sleep
	return u
}

// CredentialsConfigured reports whether all three OAuth values are present.
func (u *Uploader) CredentialsConfigured() bool {
	return u.cfg.ClientID != "" && u.cfg.ClientSecret != "" && u.cfg.RefreshToken != ""
}

func (u *Uploader) Prepare(ctx context.Context, job *jobstore.Job) error {
	if job.VideoFile == "" {
		return services.Wrap(services.ErrFileMissing, "upload", "prepare", "job has no video file", nil)
	}
	job.SetProgress("upload", "publishing video")
	return nil
}

func (u *Uploader) Execute(ctx context.Context, job *jobstore.Job) error {
	obj, err := script.FromJob(job)
	if err != nil {
		return err
	}
	if _, err := os.Stat(job.VideoFile); err != nil {
		return services.Wrap(services.ErrFileMissing, "upload", "publish",
			fmt.Sprintf("video file missing: %s", job.VideoFile), err)
	}

	// Either the per-job flag or the deployment-wide switch publishes.
	publish := job.Publish || u.cfg.AutoPublish

	if !u.CredentialsConfigured() {
		return u.parkPending(ctx, job, obj, publish)
	}

	token, err := exchangeToken(ctx, u.cfg)
	if err != nil {
		return err
	}
	session, err := u.initiateSession(ctx, token, obj, job.Language, publish)
	if err != nil {
		return err
	}
	videoID, err := u.uploadBytes(ctx, token, session, job.VideoFile)
	if err != nil {
		return err
	}
	if job.ThumbnailFile != "" {
		if err := u.setThumbnail(ctx, token, videoID, job.ThumbnailFile); err != nil {
			return err
		}
	}

	job.VideoID = videoID
	job.Status = jobstore.StatusCompleted
	job.SetMetadataValue("video_id", videoID)
	job.SetMetadataValue("visibility", visibility(publish))
	u.logger.InfoContext(ctx, "video published",
		logging.String("video_id", videoID),
		logging.String("visibility", visibility(publish)))
	return nil
}

// parkPending stores a durable record of the finished artifacts so the
// upload can be completed later. No network call is made on this path.
func (u *Uploader) parkPending(ctx context.Context, job *jobstore.Job, obj *script.ScriptObject, publish bool) error {
	pending := &jobstore.PendingUpload{
		JobID:         job.ID,
		VideoPath:     job.VideoFile,
		ThumbnailPath: job.ThumbnailFile,
		Title:         obj.Title,
		Description:   obj.Description(),
		Publish:       publish,
		Reason:        "upload credentials not configured",
	}
	pending.SetTags(obj.Tags)
	if err := u.store.SavePendingUpload(ctx, pending); err != nil {
		return services.Wrap(services.ErrTransient, "upload", "park", "persist pending upload", err)
	}
	job.Status = jobstore.StatusPendingUpload
	job.SetMetadataValue("pending_upload_id", pending.ID)
	u.logger.InfoContext(ctx, "upload parked as pending", logging.Int64("pending_upload_id", pending.ID))
	return nil
}

// initiateSession starts a resumable upload and returns the session URL
// from the Location header. Server-side 5xx responses are retried; any
// other non-2xx response is fatal.
func (u *Uploader) initiateSession(ctx context.Context, token string, obj *script.ScriptObject, lang string, publish bool) (string, error) {
	categoryID := u.cfg.CategoryID
	if categoryID == "" {
		categoryID = "22"
	}
	snippet := map[string]any{
		"title":       obj.Title,
		"description": obj.Description(),
		"tags":        obj.Tags,
		"categoryId":  categoryID,
	}
	if code := language.ToISO2(lang); code != "" {
		snippet["defaultLanguage"] = code
	}
	body, err := json.Marshal(map[string]any{
		"snippet": snippet,
		"status": map[string]any{
			"privacyStatus":           visibility(publish),
			"selfDeclaredMadeForKids": false,
		},
	})
	if err != nil {
		return "", services.Wrap(services.ErrUpload, "upload", "initiate", "encode metadata", err)
	}

	endpoint := strings.TrimRight(u.cfg.UploadBaseURL, "/") + "/videos?uploadType=resumable&part=snippet,status"
	var session string
	err = u.retryPolicy(uploadRetryAttempts, uploadRetryBase, uploadRetryCap).Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return services.Wrap(services.ErrUpload, "upload", "initiate", "build request", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("X-Upload-Content-Type", "video/mp4")

		resp, err := u.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "upload", "initiate", "session request failed", err)
		}
		defer resp.Body.Close()
		if err := classifyStatus(resp, "initiate"); err != nil {
			return err
		}
		session = resp.Header.Get("Location")
		if session == "" {
			return services.Wrap(services.ErrUpload, "upload", "initiate", "session response missing Location header", nil)
		}
		return nil
	}, services.IsRetriable)
	if err != nil {
		return "", err
	}
	return session, nil
}

// uploadBytes PUTs the video file to the session URL and returns the new
// video id.
func (u *Uploader) uploadBytes(ctx context.Context, token, session, videoPath string) (string, error) {
	var videoID string
	err := u.retryPolicy(uploadRetryAttempts, uploadRetryBase, uploadRetryCap).Do(ctx, func() error {
		f, err := os.Open(videoPath)
		if err != nil {
			return services.Wrap(services.ErrFileMissing, "upload", "transfer", "open video file", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return services.Wrap(services.ErrFileMissing, "upload", "transfer", "stat video file", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, f)
		if err != nil {
			return services.Wrap(services.ErrUpload, "upload", "transfer", "build request", err)
		}
		req.ContentLength = info.Size()
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "video/mp4")

		resp, err := u.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "upload", "transfer", "byte transfer failed", err)
		}
		defer resp.Body.Close()
		if err := classifyStatus(resp, "transfer"); err != nil {
			return err
		}

		var parsed struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return services.Wrap(services.ErrUpload, "upload", "transfer", "decode upload response", err)
		}
		if parsed.ID == "" {
			return services.Wrap(services.ErrUpload, "upload", "transfer", "upload response carried no video id", nil)
		}
		videoID = parsed.ID
		return nil
	}, services.IsRetriable)
	if err != nil {
		return "", err
	}
	return videoID, nil
}

// setThumbnail attaches the cover image. Failure here fails the stage;
// there is no silent skip once a video exists.
func (u *Uploader) setThumbnail(ctx context.Context, token, videoID, thumbnailPath string) error {
	image, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return services.Wrap(services.ErrFileMissing, "upload", "thumbnail", "read thumbnail", err)
	}
	endpoint := fmt.Sprintf("%s/thumbnails/set?videoId=%s", strings.TrimRight(u.cfg.APIBaseURL, "/"), videoID)
	return u.retryPolicy(thumbnailRetryAttempts, thumbnailRetryBase, thumbnailRetryCap).Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
		if err != nil {
			return services.Wrap(services.ErrUpload, "upload", "thumbnail", "build request", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "image/png")

		resp, err := u.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "upload", "thumbnail", "thumbnail request failed", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return classifyStatus(resp, "thumbnail")
	}, services.IsRetriable)
}

// classifyStatus maps a non-2xx response onto the stage error model:
// 5xx is transient, everything else is a fatal upload error.
func classifyStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	message := fmt.Sprintf("%s returned status %d", op, resp.StatusCode)
	if resp.StatusCode >= 500 {
		return services.Wrap(services.ErrTransient, "upload", op, message, nil)
	}
	return services.Wrap(services.ErrUpload, "upload", op, message, nil)
}

func (u *Uploader) retryPolicy(attempts int, base, maxDelay time.Duration) services.RetryPolicy {
	return services.RetryPolicy{Attempts: attempts, Base: base, Cap: maxDelay, Sleep: u.sleep}
}

func visibility(publish bool) string {
	if publish {
		return "public"
	}
	return "private"
}

func (u *Uploader) HealthCheck(ctx context.Context) stage.Health {
	if !u.CredentialsConfigured() {
		return stage.Health{Name: "upload", Ready: true, Detail: "no credentials, uploads park as pending"}
	}
	return stage.Healthy("upload")
}
