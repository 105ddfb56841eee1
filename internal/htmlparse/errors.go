package htmlparse

import (
	"fmt"

	"github.com/rohmanhakim/seo-crawler/internal/metadata"
	"github.com/rohmanhakim/seo-crawler/pkg/failure"
)

type ParseErrorCause string

const (
	ErrCauseNotHTML   ParseErrorCause = "content type is not html"
	ErrCauseMalformed ParseErrorCause = "document could not be parsed"
)

type ParseError struct {
	Message   string
	Retryable bool
	Cause     ParseErrorCause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Cause)
}

func (e *ParseError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapParseErrorToMetadataCause maps htmlparse-local error semantics to the
// canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used to derive
// control-flow decisions.
func mapParseErrorToMetadataCause(err *ParseError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML, ErrCauseMalformed:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
