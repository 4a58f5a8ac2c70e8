package ffcal

import (
	"fmt"

	"github.com/mrjoshuak/go-ffbin/ff"
)

// Calibration errors
var (
	ErrInvalidGamma        = fmt.Errorf("%w: gamma must be positive", ff.ErrValue)
	ErrInvalidLevels       = fmt.Errorf("%w: min and max level must differ", ff.ErrValue)
	ErrNoSources           = fmt.Errorf("%w: no flat-field sources", ff.ErrValue)
	ErrTooManySources      = fmt.Errorf("%w: too many flat-field sources", ff.ErrValue)
	ErrChunkSize           = fmt.Errorf("%w: invalid chunk size", ff.ErrValue)
	ErrFieldAndDeinterlace = fmt.Errorf("%w: field extraction and deinterlace are exclusive", ff.ErrValue)
	ErrUnsupportedImage    = fmt.Errorf("%w: unsupported calibration image format", ff.ErrValue)
)
