package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
)

func searchResponse(videos ...pexelsVideo) pexelsSearchResponse {
	return pexelsSearchResponse{Videos: videos}
}

func TestSelectRenditionPrefersHDMP4(t *testing.T) {
	videos := []pexelsVideo{{
		Width: 1920, Height: 1080,
		VideoFiles: []pexelsVideoFile{
			{Quality: "sd", FileType: "video/mp4", Link: "sd-link"},
			{Quality: "hd", FileType: "video/webm", Link: "webm-link"},
			{Quality: "hd", FileType: "video/mp4", Link: "hd-link"},
		},
	}}
	if got := selectRendition(videos); got != "hd-link" {
		t.Fatalf("expected hd mp4, got %q", got)
	}
}

func TestSelectRenditionFallsBackToAnyMP4(t *testing.T) {
	videos := []pexelsVideo{{
		Width: 1920, Height: 1080,
		VideoFiles: []pexelsVideoFile{
			{Quality: "sd", FileType: "video/mp4", Link: "sd-link"},
		},
	}}
	if got := selectRendition(videos); got != "sd-link" {
		t.Fatalf("expected sd mp4 fallback, got %q", got)
	}
}

func TestSelectRenditionSkipsPortrait(t *testing.T) {
	videos := []pexelsVideo{
		{Width: 1080, Height: 1920, VideoFiles: []pexelsVideoFile{{Quality: "hd", FileType: "video/mp4", Link: "portrait"}}},
		{Width: 1920, Height: 1080, VideoFiles: []pexelsVideoFile{{Quality: "hd", FileType: "video/mp4", Link: "landscape"}}},
	}
	if got := selectRendition(videos); got != "landscape" {
		t.Fatalf("expected landscape result, got %q", got)
	}
}

func newPexelsTestServer(t *testing.T, clip []byte) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/videos/search"):
			if r.Header.Get("Authorization") != "pexels-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("orientation") != "landscape" {
				t.Errorf("search must request landscape orientation")
			}
			resp := searchResponse(pexelsVideo{
				Width: 1920, Height: 1080,
				VideoFiles: []pexelsVideoFile{{Quality: "hd", FileType: "video/mp4", Link: server.URL + "/clips/1.mp4"}},
			})
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				t.Errorf("encode response: %v", err)
			}
		case strings.HasPrefix(r.URL.Path, "/clips/"):
			_, _ = w.Write(clip)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

const builderScript = `{
	"title": "T", "hook": "H",
	"sections": [
		{"heading": "First", "body": "Body one.", "b_roll": "city skyline"},
		{"heading": "Second", "body": "Body two.", "b_roll": ""}
	],
	"cta": "C", "tags": [], "shorts": []
}`

func builderJob(t *testing.T) *jobstore.Job {
	t.Helper()
	return &jobstore.Job{ID: 11, Topic: "t", WorkDir: t.TempDir(), ScriptJSON: builderScript}
}

func TestBuilderDownloadsClipsPerSection(t *testing.T) {
	server := newPexelsTestServer(t, []byte("clip-bytes"))
	client := NewPexelsClient(PexelsConfig{APIKey: "pexels-key", BaseURL: server.URL})
	builder := NewBuilder(client, logging.NewNop())

	job := builderJob(t)
	if err := builder.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if job.Status != jobstore.StatusAssetsReady {
		t.Fatalf("unexpected status %s", job.Status)
	}
	descriptors, err := DescriptorsFromJob(job)
	if err != nil {
		t.Fatalf("DescriptorsFromJob returned error: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected one descriptor per section, got %d", len(descriptors))
	}
	for i, desc := range descriptors {
		if desc.Kind != KindClip {
			t.Fatalf("descriptor %d should be a clip, got %s", i, desc.Kind)
		}
		if _, err := os.Stat(desc.Path); err != nil {
			t.Fatalf("clip %d missing on disk: %v", i, err)
		}
	}
	if filepath.Base(descriptors[0].Path) != "01_clip.mp4" || filepath.Base(descriptors[1].Path) != "02_clip.mp4" {
		t.Fatalf("unexpected filenames: %s, %s", descriptors[0].Path, descriptors[1].Path)
	}
}

func TestBuilderDegradesToSlideWhenSearchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := NewPexelsClient(PexelsConfig{APIKey: "pexels-key", BaseURL: server.URL})
	builder := NewBuilder(client, logging.NewNop())

	job := builderJob(t)
	if err := builder.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	descriptors, err := DescriptorsFromJob(job)
	if err != nil {
		t.Fatalf("DescriptorsFromJob returned error: %v", err)
	}
	for i, desc := range descriptors {
		if desc.Kind != KindSlide {
			t.Fatalf("descriptor %d should degrade to slide, got %s", i, desc.Kind)
		}
		if !strings.HasSuffix(desc.Path, "_slide.png") {
			t.Fatalf("unexpected slide path %s", desc.Path)
		}
		if _, err := os.Stat(desc.Path); err != nil {
			t.Fatalf("slide %d missing on disk: %v", i, err)
		}
	}
}

func TestBuilderRendersSlidesWithoutAPIKey(t *testing.T) {
	client := NewPexelsClient(PexelsConfig{})
	builder := NewBuilder(client, logging.NewNop())

	job := builderJob(t)
	if err := builder.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	descriptors, err := DescriptorsFromJob(job)
	if err != nil {
		t.Fatalf("DescriptorsFromJob returned error: %v", err)
	}
	if filepath.Base(descriptors[0].Path) != "01_slide.png" {
		t.Fatalf("unexpected slide name %s", descriptors[0].Path)
	}
}

func TestKindForPath(t *testing.T) {
	if KindForPath("/x/01_clip.mp4") != KindClip {
		t.Fatal("mp4 should classify as clip")
	}
	if KindForPath("/x/01_slide.png") != KindSlide {
		t.Fatal("png should classify as slide")
	}
}
