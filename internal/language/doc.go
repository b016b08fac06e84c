// Package language normalizes narration language input. Jobs may carry a
// language as an ISO code or a plain word ("es", "spa", "Spanish"); script
// prompts want the display name and upload metadata wants the two-letter
// code, so both conversions live here.
package language
