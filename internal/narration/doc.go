// Package narration synthesizes the spoken audio track for a job. Providers
// form an ordered fallback chain: ElevenLabs first when its key is present,
// then Amazon Polly when AWS credentials resolve. Long scripts are split
// into bounded chunks, synthesized independently and concatenated.
package narration
