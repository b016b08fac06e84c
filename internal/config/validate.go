package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateAMQP(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelforge/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'reelforge config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateUpload() error {
	// Credentials themselves are optional; jobs divert to pending_upload when
	// they are absent. Endpoints must still be well formed.
	for _, field := range []struct {
		name  string
		value string
	}{
		{"upload.token_url", c.Upload.TokenURL},
		{"upload.upload_base_url", c.Upload.UploadBaseURL},
		{"upload.api_base_url", c.Upload.APIBaseURL},
	} {
		if !strings.HasPrefix(field.value, "http://") && !strings.HasPrefix(field.value, "https://") {
			return fmt.Errorf("%s must be an http(s) URL", field.name)
		}
	}
	return nil
}

func (c *Config) validateAMQP() error {
	if !strings.HasPrefix(c.AMQP.URL, "amqp://") && !strings.HasPrefix(c.AMQP.URL, "amqps://") {
		return errors.New("amqp.url must be an amqp(s) URL")
	}
	if strings.TrimSpace(c.AMQP.QueueName) == "" {
		return errors.New("amqp.queue_name must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxAttempts > 10 {
		return errors.New("workflow.max_attempts must be 10 or fewer")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
