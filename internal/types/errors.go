package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can route on them
// without inspecting error strings.
type ErrorKind int

const (
	// KindUnknown is the zero value for unclassified errors.
	KindUnknown ErrorKind = iota

	// KindIngestion: bad/missing media path, unsupported extension.
	// Fatal for the current turn, surfaced as a user-visible message.
	KindIngestion

	// KindTranscription: asset-level speech-to-text failure.
	KindTranscription

	// KindDescription: per-chunk vision failure; swallowed and skipped.
	KindDescription

	// KindGeneration: text generation failure.
	KindGeneration

	// KindClassification: intent classification failure; recovered locally
	// by defaulting to UNCLEAR.
	KindClassification

	// KindToolExecution: tool failure, converted to a user-facing apology.
	KindToolExecution

	// KindPersistence: cache write failure. Safe to retry the whole
	// ingestion since no partial durable state was assumed.
	KindPersistence
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindIngestion:
		return "ingestion"
	case KindTranscription:
		return "transcription"
	case KindDescription:
		return "description"
	case KindGeneration:
		return "generation"
	case KindClassification:
		return "classification"
	case KindToolExecution:
		return "tool_execution"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// PipelineError wraps an error with its kind and the operation that failed.
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// E builds a PipelineError.
func E(kind ErrorKind, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a PipelineError from a format string.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// KindOf extracts the error kind, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
