package narration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"

	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestSplitChunksBoundsAndOrder(t *testing.T) {
	text := strings.Repeat("a", 7) + strings.Repeat("b", 3)
	chunks := SplitChunks(text, 4)
	want := []string{"aaaa", "aaab", "bb"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("concatenated chunks must reproduce the input")
	}
}

func TestSplitChunksRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 5)
	for _, chunk := range SplitChunks(text, 2) {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %q split inside a rune", chunk)
		}
	}
}

func TestElevenLabsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	var delays []time.Duration
	provider := NewElevenLabs(ElevenLabsConfig{APIKey: "k", BaseURL: server.URL}).
		WithRetrySleep(func(d time.Duration) { delays = append(delays, d) })
	audio, err := provider.Synthesize(context.Background(), "hello", "alloy")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("unexpected backoff delays %v", delays)
	}
}

func TestElevenLabsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewElevenLabs(ElevenLabsConfig{APIKey: "bad", BaseURL: server.URL}).
		WithRetrySleep(func(time.Duration) {})
	_, err := provider.Synthesize(context.Background(), "hello", "alloy")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single call, got %d", got)
	}
}

func TestElevenLabsMapsVoiceAlias(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		if r.Header.Get("xi-api-key") != "k" {
			t.Fatalf("missing api key header")
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	provider := NewElevenLabs(ElevenLabsConfig{APIKey: "k", BaseURL: server.URL})
	if _, err := provider.Synthesize(context.Background(), "hi", "alloy"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if got := path.Load().(string); !strings.Contains(got, defaultElevenLabsVoiceID) {
		t.Fatalf("alias not remapped, path %q", got)
	}
}

type stubPolly struct {
	voice pollytypes.VoiceId
	audio []byte
	err   error
}

func (s *stubPolly) SynthesizeSpeech(ctx context.Context, input *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	s.voice = input.VoiceId
	if s.err != nil {
		return nil, s.err
	}
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(bytes.NewReader(s.audio))}, nil
}

func TestPollyMapsVoiceAliasAndReadsStream(t *testing.T) {
	stub := &stubPolly{audio: []byte("polly-bytes")}
	provider := newPollyWithClient(stub)
	audio, err := provider.Synthesize(context.Background(), "hello", "alloy")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "polly-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if stub.voice != pollytypes.VoiceId(defaultPollyVoice) {
		t.Fatalf("alias mapped to %q, want %q", stub.voice, defaultPollyVoice)
	}
}

type fakeProvider struct {
	name       string
	configured bool
	err        error
	calls      int
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }
func (f *fakeProvider) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text[:min(8, len(text))]), nil
}

const stageScript = `{"title":"T","hook":"Hook text.","sections":[{"heading":"H","body":"Body.","b_roll":""}],"cta":"CTA.","tags":[],"shorts":[]}`

func stageJob(t *testing.T) *jobstore.Job {
	t.Helper()
	return &jobstore.Job{ID: 3, Topic: "t", WorkDir: t.TempDir(), ScriptJSON: stageScript}
}

func TestStageFallsThroughToSecondProvider(t *testing.T) {
	primary := &fakeProvider{name: "elevenlabs", configured: true, err: errors.New("quota exhausted")}
	secondary := &fakeProvider{name: "polly", configured: true}
	s := NewStage([]Provider{primary, secondary}, "ffmpeg-not-invoked", logging.NewNop())

	job := stageJob(t)
	if err := s.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected both providers tried, got %d/%d", primary.calls, secondary.calls)
	}
	if job.Status != jobstore.StatusTTSComplete {
		t.Fatalf("unexpected status %s", job.Status)
	}
	if job.Metadata()["narration_provider"] != "polly" {
		t.Fatalf("metadata should record winning provider: %v", job.Metadata())
	}
	if _, err := os.Stat(job.NarrationFile); err != nil {
		t.Fatalf("narration file missing: %v", err)
	}
	if filepath.Base(job.NarrationFile) != narrationFileName {
		t.Fatalf("unexpected narration file %s", job.NarrationFile)
	}
}

func TestStageSkipsUnconfiguredProviders(t *testing.T) {
	skipped := &fakeProvider{name: "elevenlabs", configured: false}
	active := &fakeProvider{name: "polly", configured: true}
	s := NewStage([]Provider{skipped, active}, "ffmpeg-not-invoked", logging.NewNop())
	if err := s.Execute(context.Background(), stageJob(t)); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped.calls != 0 {
		t.Fatal("unconfigured provider must not be called")
	}
}

func TestStageFailsWhenNoProviderConfigured(t *testing.T) {
	s := NewStage([]Provider{
		&fakeProvider{name: "elevenlabs"},
		&fakeProvider{name: "polly"},
	}, "ffmpeg-not-invoked", logging.NewNop())
	err := s.Execute(context.Background(), stageJob(t))
	if !errors.Is(err, services.ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "ElevenLabs") || !strings.Contains(err.Error(), "Polly") {
		t.Fatalf("error should name both credential sets: %v", err)
	}
}
