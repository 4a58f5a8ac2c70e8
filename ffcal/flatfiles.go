package ffcal

import (
	"fmt"

	"github.com/mrjoshuak/go-ffbin/ff"
	"github.com/mrjoshuak/go-ffbin/internal/parallel"
)

// BuildFlatFiles decodes the FF files at paths, builds a flat field from
// their average planes and, when savePath is not empty, writes it with
// SaveFrame. Files are decoded concurrently. A file whose planes could not be read fails the whole batch.
func BuildFlatFiles(paths []string, format ff.Format, dark *ff.Frame, savePath string, opts FlatOptions) (*CalibrationFrame, error) {
	if len(paths) > MaxFlatSources {
		return nil, fmt.Errorf("%w: %d, at most %d", ErrTooManySources, len(paths), MaxFlatSources)
	}
	sources := make([]*ff.Frame, len(paths))
	err := parallel.ForErr(len(paths), func(i int) error {
		rec, err := ff.DecodeFile(paths[i], format)
		if err != nil {
			return err
		}
		if rec.LoadErr != nil {
			return fmt.Errorf("%s: %w", paths[i], rec.LoadErr)
		}
		sources[i] = rec.AvePixel
		return nil
	})
	if err != nil {
		return nil, err
	}

	flat, err := BuildFlat(sources, dark, opts)
	if err != nil {
		return nil, err
	}
	if savePath != "" {
		if err := SaveFrame(savePath, flat.Frame); err != nil {
			return nil, err
		}
	}
	return flat, nil
}
