// Package textutil provides text processing utilities for slugs, word
// counting, truncation, and subtitle line wrapping.
//
// The primary use cases are:
//   - Deriving filesystem-safe slugs from job topics for working directories
//   - Counting narration words to apportion section screen time
//   - Wrapping caption text to a fixed column width
package textutil
