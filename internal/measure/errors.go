package measure

import "errors"

// ErrorKind identifies which stage of the measurement pipeline failed.
type ErrorKind int

const (
	// ErrDecode means the image bytes could not be decoded at all.
	ErrDecode ErrorKind = iota
	// ErrReferenceNotFound means no contour matched the marker color range.
	ErrReferenceNotFound
	// ErrReferenceTooSmall means the matched marker box is below the noise floor.
	ErrReferenceTooSmall
	// ErrEmptyROI means no image area remains above the reference marker.
	ErrEmptyROI
	// ErrBottleNotFound means no contour survived the silhouette filters.
	ErrBottleNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDecode:
		return "decode"
	case ErrReferenceNotFound:
		return "reference-not-found"
	case ErrReferenceTooSmall:
		return "reference-too-small"
	case ErrEmptyROI:
		return "empty-roi"
	case ErrBottleNotFound:
		return "bottle-not-found"
	default:
		return "unknown"
	}
}

// Error is a deterministic, non-retryable measurement failure. Retrying with
// the same image produces the same failure; recovery needs a different image
// or different calibration parameters. Callers that want a fallback policy
// detect it with errors.As and decide for themselves.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// AsError returns the typed measurement error inside err, if any.
func AsError(err error) (*Error, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
