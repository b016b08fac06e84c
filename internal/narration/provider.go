package narration

import "context"

// ChunkLimit bounds the character length of a single synthesis request.
// Splits do not respect sentence boundaries.
const ChunkLimit = 5000

// Provider is one text-to-speech backend in the fallback chain.
type Provider interface {
	Name() string
	// Configured reports whether the provider has usable credentials.
	// Unconfigured providers are skipped without counting as failures.
	Configured() bool
	// Synthesize returns MP3 audio for one chunk of text.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SplitChunks slices text into pieces of at most limit characters. Rune
// boundaries are respected; word and sentence boundaries are not.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 {
		limit = ChunkLimit
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
