// Package llm provides an OpenRouter-compatible chat client used to draft
// video scripts.
//
// The client sends system/user prompts with a JSON-only response format and
// returns the raw payload. DecodeLLMJSON tolerates the usual model quirks
// (code fences, prose around the object) before structural validation happens
// in the script package.
//
// # Retry Behaviour
//
// The client retries HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 3 attempts). Context
// cancellation aborts retries immediately. Refusals and malformed payloads
// surface to the caller without retry once attempts are spent.
package llm
