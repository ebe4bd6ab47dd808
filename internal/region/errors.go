package region

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds reports a requested coordinate outside the region's image
// data, or a non-finite coordinate. Recoverable: callers hide the dependent
// marker and clear derived display fields.
var ErrOutOfBounds = errors.New("outside of the image data")

func outOfBounds(x, y float64) error {
	return fmt.Errorf("requested center (%.1f, %.1f) is %w", x, y, ErrOutOfBounds)
}
