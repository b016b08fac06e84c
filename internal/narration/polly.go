package narration

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"

	"reelforge/internal/services"
)

const defaultPollyVoice = "Joanna"

var pollyVoiceAliases = map[string]string{
	"alloy":   defaultPollyVoice,
	"default": defaultPollyVoice,
	"":        defaultPollyVoice,
}

type pollyAPI interface {
	SynthesizeSpeech(ctx context.Context, input *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Polly synthesizes speech through Amazon Polly's neural voices.
type Polly struct {
	client     pollyAPI
	configured bool
}

// NewPolly resolves AWS credentials for the region. A provider whose
// credential chain does not resolve is returned unconfigured rather than
// failing, since Polly is the fallback tier.
func NewPolly(ctx context.Context, region string) *Polly {
	if strings.TrimSpace(region) == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return &Polly{}
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return &Polly{}
	}
	return &Polly{client: polly.NewFromConfig(awsCfg), configured: true}
}

// newPollyWithClient is used by tests to inject a stub API.
func newPollyWithClient(client pollyAPI) *Polly {
	return &Polly{client: client, configured: client != nil}
}

func (p *Polly) Name() string { return "polly" }

func (p *Polly) Configured() bool { return p != nil && p.configured }

func (p *Polly) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !p.Configured() {
		return nil, services.Wrap(services.ErrCredentialsMissing, "narration", "polly", "aws credentials not configured", nil)
	}
	voiceID := voice
	if mapped, ok := pollyVoiceAliases[strings.ToLower(strings.TrimSpace(voice))]; ok {
		voiceID = mapped
	}
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      pollytypes.VoiceId(voiceID),
		Engine:       pollytypes.EngineNeural,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "narration", "polly", "synthesize failed", err)
	}
	defer out.AudioStream.Close()
	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "narration", "polly", "read audio stream", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrTransient, "narration", "polly", "empty audio stream", nil)
	}
	return audio, nil
}
