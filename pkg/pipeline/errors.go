package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ideamans/go-l10n"
)

// Markers classifying pipeline failures. Every error leaving the
// orchestrator wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrCapture       = errors.New("capture error")
	ErrEncode        = errors.New("encode error")
	ErrCanceled      = errors.New("canceled")
	ErrInternal      = errors.New("internal error")
)

// ErrorKind is the machine-distinguishable failure class.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindCapture       ErrorKind = "capture"
	KindEncode        ErrorKind = "encode"
	KindCanceled      ErrorKind = "canceled"
	KindInternal      ErrorKind = "internal"
)

// Wrap tags err with marker and stage context. The result matches both
// marker and err under errors.Is.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	if marker == nil {
		marker = ErrCapture
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err. Context cancellation is reported as KindCanceled
// even when it was not wrapped with ErrCanceled. Unmarked errors are
// internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrCapture):
		return KindCapture
	case errors.Is(err, ErrEncode):
		return KindEncode
	default:
		return KindInternal
	}
}

// UserMessage returns a single translated line suitable for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var prefix string
	switch KindOf(err) {
	case KindValidation:
		prefix = l10n.T("The animation file is invalid")
	case KindConfiguration:
		prefix = l10n.T("The conversion options are invalid")
	case KindCapture:
		prefix = l10n.T("Failed to capture frames")
	case KindEncode:
		prefix = l10n.T("Failed to encode APNG")
	case KindCanceled:
		return l10n.T("Conversion canceled")
	default:
		prefix = l10n.T("Conversion failed")
	}
	return prefix + ": " + err.Error()
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
