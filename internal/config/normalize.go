package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeNarration()
	c.normalizeAssets()
	c.normalizeThumbnail()
	c.normalizeUpload()
	c.normalizeAMQP()
	c.normalizeMonitor()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeNarration() {
	if c.Narration.ElevenLabsAPIKey == "" {
		c.Narration.ElevenLabsAPIKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	}
	if strings.TrimSpace(c.Narration.ElevenLabsBaseURL) == "" {
		c.Narration.ElevenLabsBaseURL = defaultElevenLabsBaseURL
	}
	if strings.TrimSpace(c.Narration.ElevenLabsModel) == "" {
		c.Narration.ElevenLabsModel = defaultElevenLabsModel
	}
	if strings.TrimSpace(c.Narration.PollyRegion) == "" {
		c.Narration.PollyRegion = defaultPollyRegion
	}
	if strings.TrimSpace(c.Narration.Voice) == "" {
		c.Narration.Voice = defaultVoice
	}
	if c.Narration.TimeoutSeconds <= 0 {
		c.Narration.TimeoutSeconds = defaultNarrationTimeout
	}
}

func (c *Config) normalizeAssets() {
	if c.Assets.PexelsAPIKey == "" {
		c.Assets.PexelsAPIKey = strings.TrimSpace(os.Getenv("PEXELS_API_KEY"))
	}
	if strings.TrimSpace(c.Assets.PexelsBaseURL) == "" {
		c.Assets.PexelsBaseURL = defaultPexelsBaseURL
	}
	if c.Assets.TimeoutSeconds <= 0 {
		c.Assets.TimeoutSeconds = defaultAssetsTimeout
	}
}

func (c *Config) normalizeThumbnail() {
	if c.Thumbnail.OpenAIAPIKey == "" {
		c.Thumbnail.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if strings.TrimSpace(c.Thumbnail.OpenAIBaseURL) == "" {
		c.Thumbnail.OpenAIBaseURL = defaultThumbnailBaseURL
	}
	if strings.TrimSpace(c.Thumbnail.Model) == "" {
		c.Thumbnail.Model = defaultThumbnailModel
	}
	if c.Thumbnail.TimeoutSeconds <= 0 {
		c.Thumbnail.TimeoutSeconds = defaultThumbnailTimeout
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.ClientID == "" {
		c.Upload.ClientID = strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_ID"))
	}
	if c.Upload.ClientSecret == "" {
		c.Upload.ClientSecret = strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_SECRET"))
	}
	if c.Upload.RefreshToken == "" {
		c.Upload.RefreshToken = strings.TrimSpace(os.Getenv("YOUTUBE_REFRESH_TOKEN"))
	}
	if strings.TrimSpace(c.Upload.TokenURL) == "" {
		c.Upload.TokenURL = defaultTokenURL
	}
	if strings.TrimSpace(c.Upload.UploadBaseURL) == "" {
		c.Upload.UploadBaseURL = defaultUploadBaseURL
	}
	if strings.TrimSpace(c.Upload.APIBaseURL) == "" {
		c.Upload.APIBaseURL = defaultYouTubeAPIBaseURL
	}
	if strings.TrimSpace(c.Upload.CategoryID) == "" {
		c.Upload.CategoryID = defaultUploadCategoryID
	}
	if c.Upload.TimeoutSeconds <= 0 {
		c.Upload.TimeoutSeconds = defaultUploadTimeout
	}
}

func (c *Config) normalizeAMQP() {
	if c.AMQP.URL == "" {
		c.AMQP.URL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	}
	if strings.TrimSpace(c.AMQP.URL) == "" {
		c.AMQP.URL = defaultAMQPURL
	}
	if strings.TrimSpace(c.AMQP.QueueName) == "" {
		c.AMQP.QueueName = defaultQueueName
	}
	if c.AMQP.Prefetch <= 0 {
		c.AMQP.Prefetch = defaultPrefetch
	}
}

func (c *Config) normalizeMonitor() {
	c.Monitor.Bind = strings.TrimSpace(c.Monitor.Bind)
	if c.Monitor.Bind == "" {
		c.Monitor.Bind = defaultMonitorBind
	}
	c.Monitor.APIKey = strings.TrimSpace(c.Monitor.APIKey)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.JobTimeoutSeconds <= 0 {
		c.Workflow.JobTimeoutSeconds = defaultJobTimeoutSeconds
	}
	if c.Workflow.MaxAttempts <= 0 {
		c.Workflow.MaxAttempts = defaultMaxAttempts
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
