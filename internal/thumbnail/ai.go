package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
)

// AIClient requests generated cover images from an OpenAI-compatible
// images endpoint.
type AIClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

func NewAIClient(cfg AIConfig) *AIClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-image-1"
	}
	return &AIClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *AIClient) Configured() bool { return c != nil && c.apiKey != "" }

// Prompt builds the image request text from the script title and hook.
func Prompt(title, hook string) string {
	var b strings.Builder
	b.WriteString("A bold, high-contrast YouTube thumbnail background for a video titled ")
	fmt.Fprintf(&b, "%q.", strings.TrimSpace(title))
	if hook = strings.TrimSpace(hook); hook != "" {
		fmt.Fprintf(&b, " The video opens with: %s", hook)
	}
	b.WriteString(" Dramatic lighting, no text, no watermarks, 16:9 composition.")
	return b.String()
}

// Generate requests one image and writes it to path.
func (c *AIClient) Generate(ctx context.Context, prompt, path string) error {
	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"n":      1,
		"size":   "1536x1024",
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, "thumbnail", "generate", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrValidation, "thumbnail", "generate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "generate", "image request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrTransient, "thumbnail", "generate",
			fmt.Sprintf("image endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var parsed struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "generate", "decode image response", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return services.Wrap(services.ErrTransient, "thumbnail", "generate", "image response carried no data", nil)
	}
	image, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "generate", "decode image payload", err)
	}
	if _, err := fileutil.WriteStreamTo(path, bytes.NewReader(image)); err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "generate", "write image", err)
	}
	return nil
}
