package common

import (
	"errors"
	"fmt"
)

// StreamErrType classifies the failures of the ingestion engine. The kind
// tells the caller how far the failure propagates: a row, a file, a filename
// for the current cycle, or the whole cycle.
type StreamErrType uint32

const (
	// InvalidDatasetRow is a malformed, negative, or wrong-shard balance line.
	// It only fails the row being decoded.
	InvalidDatasetRow StreamErrType = iota
	// MalformedStreamFile is any structural violation of a stream file. It
	// fails the whole file, which is retried on the next cycle.
	MalformedStreamFile
	// EmptyStreamFile is a v5 record file without record stream objects.
	EmptyStreamFile
	// TrailingData means bytes were found after the end of a stream file.
	TrailingData
	// UnknownVersion is a version tag no decoder is registered for.
	UnknownVersion
	// QuorumNotReached means no content hash gathered a supermajority of
	// valid signatures, or no supporting node served matching bytes.
	QuorumNotReached
	// ChainDiscontinuity is a previous-hash mismatch between consecutive
	// accepted files. It is a warning.
	ChainDiscontinuity
	// NoAddressBookAvailable means no roster has completed yet.
	NoAddressBookAvailable
	// PersistenceFailure means the persistence collaborator rejected a batch.
	PersistenceFailure
)

// String ...
func (t StreamErrType) String() string {
	switch t {
	case InvalidDatasetRow:
		return "InvalidDatasetRow"
	case MalformedStreamFile:
		return "MalformedStreamFile"
	case EmptyStreamFile:
		return "EmptyStreamFile"
	case TrailingData:
		return "TrailingData"
	case UnknownVersion:
		return "UnknownVersion"
	case QuorumNotReached:
		return "QuorumNotReached"
	case ChainDiscontinuity:
		return "ChainDiscontinuity"
	case NoAddressBookAvailable:
		return "NoAddressBookAvailable"
	case PersistenceFailure:
		return "PersistenceFailure"
	default:
		return "Unknown"
	}
}

// StreamErr is the error value returned by the decoders, the downloader and
// the importer.
type StreamErr struct {
	errType StreamErrType
	subject string
	msg     string
	cause   error
}

// NewStreamErr creates a StreamErr about subject (usually a filename).
func NewStreamErr(errType StreamErrType, subject string, format string, args ...interface{}) StreamErr {
	return StreamErr{
		errType: errType,
		subject: subject,
		msg:     fmt.Sprintf(format, args...),
	}
}

// WrapStreamErr creates a StreamErr with an underlying cause.
func WrapStreamErr(errType StreamErrType, subject string, cause error) StreamErr {
	return StreamErr{
		errType: errType,
		subject: subject,
		cause:   cause,
	}
}

// Type returns the kind of the error.
func (e StreamErr) Type() StreamErrType {
	return e.errType
}

// Error implements the error interface
func (e StreamErr) Error() string {
	m := e.msg
	if e.cause != nil {
		if m != "" {
			m = m + ": " + e.cause.Error()
		} else {
			m = e.cause.Error()
		}
	}
	if e.subject == "" {
		return fmt.Sprintf("%s: %s", e.errType, m)
	}
	return fmt.Sprintf("%s, %s: %s", e.subject, e.errType, m)
}

// Unwrap returns the cause, if any.
func (e StreamErr) Unwrap() error {
	return e.cause
}

// IsStream checks that err, or an error it wraps, is a StreamErr of type t.
// EmptyStreamFile, TrailingData and UnknownVersion are also reported as
// MalformedStreamFile since they fail a file the same way.
func IsStream(err error, t StreamErrType) bool {
	var streamErr StreamErr
	if !errors.As(err, &streamErr) {
		return false
	}
	if streamErr.errType == t {
		return true
	}
	if t == MalformedStreamFile {
		switch streamErr.errType {
		case EmptyStreamFile, TrailingData, UnknownVersion:
			return true
		}
	}
	return false
}
