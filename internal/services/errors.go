package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContentRejected marks topics the language model declined. Never retried.
	ErrContentRejected = errors.New("content rejected")
	// ErrMalformedResponse marks model output that failed parsing or
	// structural validation. Never retried; the same prompt would
	// reproduce it.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrTransient marks network and 5xx failures eligible for bounded
	// stage-local retries.
	ErrTransient = errors.New("transient failure")
	// ErrCredentialsMissing marks a stage with no usable provider or
	// credential set.
	ErrCredentialsMissing = errors.New("credentials missing")
	// ErrFileMissing marks a required input artifact absent at stage entry.
	ErrFileMissing = errors.New("file missing")
	// ErrUpload marks fatal non-retriable upload protocol failures.
	ErrUpload = errors.New("upload error")
	// ErrConfiguration marks a stage wired without its required settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks invalid stage input.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetriable reports whether an error is eligible for a stage-local retry.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTransient)
}

// Details returns the human-readable message to persist in job metadata
// when a stage failure escapes to the orchestrator.
func Details(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
