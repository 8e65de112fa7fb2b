package format

import "errors"

// ErrorCode is the closed taxonomy of failures the core can report. Every
// decode path returns one of these rather than panicking; malformed input
// can only ever produce a bounded error, never a crash.
type ErrorCode uint8

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidCompressionType
	ErrCodeInvalidDataType
	ErrCodeInvalidLUTChunkLength
	ErrCodeOutOfBoundRead
	ErrCodeNotAnOmFile
)

func (e ErrorCode) String() string {
	switch e {
	case ErrCodeOK:
		return "OK"
	case ErrCodeInvalidCompressionType:
		return "INVALID_COMPRESSION_TYPE"
	case ErrCodeInvalidDataType:
		return "INVALID_DATA_TYPE"
	case ErrCodeInvalidLUTChunkLength:
		return "INVALID_LUT_CHUNK_LENGTH"
	case ErrCodeOutOfBoundRead:
		return "OUT_OF_BOUND_READ"
	case ErrCodeNotAnOmFile:
		return "NOT_AN_OM_FILE"
	default:
		return "UNKNOWN"
	}
}

// Error wraps an ErrorCode so it satisfies the error interface while still
// letting callers switch on the underlying code.
type Error struct {
	Code ErrorCode
	msg  string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.Code.String() + ": " + e.msg
	}

	return e.Code.String()
}

// Is supports errors.Is(err, format.ErrOutOfBoundRead) and friends by
// comparing error codes rather than pointer identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}

	return false
}

// NewError builds an *Error with an explanatory message for the given code.
func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

// Sentinel errors for errors.Is comparisons against a bare code.
var (
	ErrInvalidCompressionType = &Error{Code: ErrCodeInvalidCompressionType}
	ErrInvalidDataType        = &Error{Code: ErrCodeInvalidDataType}
	ErrInvalidLUTChunkLength  = &Error{Code: ErrCodeInvalidLUTChunkLength}
	ErrOutOfBoundRead         = &Error{Code: ErrCodeOutOfBoundRead}
	ErrNotAnOmFile            = &Error{Code: ErrCodeNotAnOmFile}

	// ErrInvalidHeaderSize is a decode-layer precondition failure distinct from
	// the wire-level error codes above: the caller handed us a byte slice
	// that's too short to even contain a fixed-size header or trailer.
	ErrInvalidHeaderSize = errors.New("format: invalid header size")
)
