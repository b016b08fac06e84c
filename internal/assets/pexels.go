package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
)

// PexelsClient searches and downloads stock footage from the Pexels video API.
type PexelsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// PexelsConfig carries the provider settings from the assets section of
// the daemon configuration.
type PexelsConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

type pexelsSearchResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID         int64             `json:"id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

func NewPexelsClient(cfg PexelsConfig) *PexelsClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.pexels.com"
	}
	return &PexelsClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *PexelsClient) Configured() bool { return c != nil && c.apiKey != "" }

// FindClipURL searches for landscape footage matching the query and returns
// the download URL of the best rendition: an "hd" MP4 when available,
// otherwise any MP4 from the first landscape result.
func (c *PexelsClient) FindClipURL(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", services.Wrap(services.ErrValidation, "assets", "search", "empty search query", nil)
	}
	endpoint := fmt.Sprintf("%s/videos/search?query=%s&orientation=landscape&per_page=5", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "assets", "search", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "assets", "search", "pexels request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "assets", "search",
			fmt.Sprintf("pexels returned status %d", resp.StatusCode), nil)
	}

	var parsed pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", services.Wrap(services.ErrTransient, "assets", "search", "decode search response", err)
	}
	link := selectRendition(parsed.Videos)
	if link == "" {
		return "", services.Wrap(services.ErrTransient, "assets", "search",
			fmt.Sprintf("no landscape mp4 result for %q", query), nil)
	}
	return link, nil
}

// selectRendition picks the first landscape video and prefers its hd MP4
// rendition, falling back to any MP4.
func selectRendition(videos []pexelsVideo) string {
	for _, video := range videos {
		if video.Width <= video.Height {
			continue
		}
		var anyMP4 string
		for _, file := range video.VideoFiles {
			if file.FileType != "video/mp4" {
				continue
			}
			if file.Quality == "hd" {
				return file.Link
			}
			if anyMP4 == "" {
				anyMP4 = file.Link
			}
		}
		if anyMP4 != "" {
			return anyMP4
		}
	}
	return ""
}

// Download streams the clip at link into path.
func (c *PexelsClient) Download(ctx context.Context, link, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "assets", "download", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "assets", "download", "download failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "assets", "download",
			fmt.Sprintf("download returned status %d", resp.StatusCode), nil)
	}
	if _, err := fileutil.WriteStreamTo(path, resp.Body); err != nil {
		return services.Wrap(services.ErrTransient, "assets", "download", "write clip", err)
	}
	return nil
}
