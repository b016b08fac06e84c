package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// LLM contains connection settings for the chat-completion service used to
// generate scripts and thumbnail prompts.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Narration contains text-to-speech provider settings. ElevenLabs is tried
// first; Polly is the fallback when its credentials resolve.
type Narration struct {
	ElevenLabsAPIKey  string `toml:"elevenlabs_api_key"`
	ElevenLabsBaseURL string `toml:"elevenlabs_base_url"`
	ElevenLabsModel   string `toml:"elevenlabs_model"`
	PollyRegion       string `toml:"polly_region"`
	Voice             string `toml:"voice"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Assets contains stock footage settings.
type Assets struct {
	PexelsAPIKey   string `toml:"pexels_api_key"`
	PexelsBaseURL  string `toml:"pexels_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Thumbnail contains AI image generation settings. When the API key is
// missing or the request fails the renderer falls back to a drawn card.
type Thumbnail struct {
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Upload contains YouTube OAuth and upload settings.
type Upload struct {
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	RefreshToken   string `toml:"refresh_token"`
	TokenURL       string `toml:"token_url"`
	UploadBaseURL  string `toml:"upload_base_url"`
	APIBaseURL     string `toml:"api_base_url"`
	CategoryID     string `toml:"category_id"`
	AutoPublish    bool   `toml:"auto_publish"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AMQP contains work queue broker settings.
type AMQP struct {
	URL       string `toml:"url"`
	QueueName string `toml:"queue_name"`
	Prefetch  int    `toml:"prefetch"`
}

// Monitor contains the HTTP monitoring API settings.
type Monitor struct {
	Bind   string `toml:"bind"`
	APIKey string `toml:"api_key"`
}

// Workflow contains worker timing and retry budget configuration.
type Workflow struct {
	JobTimeoutSeconds int `toml:"job_timeout_seconds"`
	MaxAttempts       int `toml:"max_attempts"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Queue              bool   `toml:"queue"`
	Completed          bool   `toml:"completed"`
	PendingUpload      bool   `toml:"pending_upload"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Reelforge.
//
// Configuration sections by subsystem:
//   - Paths: storage, database, and log directories
//   - LLM: chat-completion API for script generation
//   - Narration: text-to-speech providers and voice selection
//   - Assets: stock footage search
//   - Thumbnail: AI thumbnail image generation
//   - Upload: YouTube OAuth credentials and upload endpoints
//   - AMQP: work queue broker
//   - Monitor: HTTP monitoring API bind and key
//   - Workflow: per-job timeout and attempt budget
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Narration     Narration     `toml:"narration"`
	Assets        Assets        `toml:"assets"`
	Thumbnail     Thumbnail     `toml:"thumbnail"`
	Upload        Upload        `toml:"upload"`
	AMQP          AMQP          `toml:"amqp"`
	Monitor       Monitor       `toml:"monitor"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for worker operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "reelforge.db")
}

// FFmpegBinary returns the ffmpeg executable name used for composition.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
