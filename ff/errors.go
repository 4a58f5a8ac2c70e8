package ff

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this module wraps exactly one of
// these, so callers can branch with errors.Is on the kind alone.
var (
	// ErrFormat reports a malformed or truncated byte stream or an unknown
	// format tag.
	ErrFormat = errors.New("ff: malformed container")

	// ErrRange reports a frame index outside [0, FrameCount-1] or an array
	// whose shape does not match its counterpart.
	ErrRange = errors.New("ff: out of range")

	// ErrValue reports an invalid argument such as a non-positive gamma or
	// an oversized flat-field batch.
	ErrValue = errors.New("ff: invalid value")
)

// Decoder errors
var (
	ErrTruncated       = fmt.Errorf("%w: truncated data", ErrFormat)
	ErrUnknownVersion  = fmt.Errorf("%w: unknown version tag", ErrFormat)
	ErrVersionMismatch = fmt.Errorf("%w: version tag does not match requested format", ErrFormat)
	ErrDimensions      = fmt.Errorf("%w: invalid image dimensions", ErrFormat)
	ErrUnknownFormat   = fmt.Errorf("%w: unknown format", ErrFormat)
)

// Reconstruction and shape errors
var (
	ErrFrameIndex    = fmt.Errorf("%w: frame index", ErrRange)
	ErrShapeMismatch = fmt.Errorf("%w: array shape mismatch", ErrRange)
)

// ErrMode is returned for an unknown reconstruction mode.
var ErrMode = fmt.Errorf("%w: reconstruction mode", ErrValue)
