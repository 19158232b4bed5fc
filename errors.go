package main

import (
	"errors"
	"fmt"
)

// ResolveErrorKind classifies the failures callers may want to tell apart.
type ResolveErrorKind int

const (
	ErrInvalidChecksumFormat ResolveErrorKind = iota
	ErrUnsupportedChecksumAlgorithm
	ErrUnexpectedResponse
	ErrCorruptDownload
	ErrNoMatchFound
	ErrIndexFormatMismatch
)

func (k ResolveErrorKind) String() string {
	switch k {
	case ErrInvalidChecksumFormat:
		return "InvalidChecksumFormat"
	case ErrUnsupportedChecksumAlgorithm:
		return "UnsupportedChecksumAlgorithm"
	case ErrUnexpectedResponse:
		return "UnexpectedResponse"
	case ErrCorruptDownload:
		return "CorruptDownload"
	case ErrNoMatchFound:
		return "NoMatchFound"
	case ErrIndexFormatMismatch:
		return "IndexFormatMismatch"
	default:
		return "Unknown"
	}
}

type ResolveError struct {
	Kind ResolveErrorKind
	// URL, file name, checksum or query the error is about
	Subject string
	Err     error
}

func (e *ResolveError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func newResolveError(kind ResolveErrorKind, subject string, format string, args ...any) *ResolveError {
	return &ResolveError{
		Kind:    kind,
		Subject: subject,
		Err:     fmt.Errorf(format, args...),
	}
}

// IsResolveErrorKind reports whether err or anything it wraps is a ResolveError of the given kind.
func IsResolveErrorKind(err error, kind ResolveErrorKind) bool {
	var re *ResolveError
	if !errors.As(err, &re) {
		return false
	}
	return re.Kind == kind
}
