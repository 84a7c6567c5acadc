package pgcopy

import (
	"strings"

	"github.com/ajitpratap0/pgbulk/pkg/errors"
)

// CopyFormat selects the wire variant of the copy stream
type CopyFormat int

const (
	// CopyFormatText streams one delimited line per row
	CopyFormatText CopyFormat = iota
	// CopyFormatBinary streams length-prefixed fields with fixed framing
	CopyFormatBinary
)

// String returns the format name for logging and the COPY command clause
func (f CopyFormat) String() string {
	switch f {
	case CopyFormatText:
		return "text"
	case CopyFormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// session holds per-transfer settings. It is created by NewCopier and
// immutable afterwards.
type session struct {
	format                 CopyFormat
	nullByteReplacement    string
	hasNullByteReplacement bool
}

// newSession validates and captures the transfer configuration. The NUL
// byte replacement string, when configured, must not itself contain NUL.
func newSession(format CopyFormat, replacement string, hasReplacement bool) (*session, error) {
	if format != CopyFormatText && format != CopyFormatBinary {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported copy format %d", int(format))
	}
	if hasReplacement && strings.IndexByte(replacement, 0) >= 0 {
		return nil, errors.New(errors.ErrorTypeConfig,
			"null byte replacement string cannot contain null bytes")
	}
	return &session{
		format:                 format,
		nullByteReplacement:    replacement,
		hasNullByteReplacement: hasReplacement,
	}, nil
}
