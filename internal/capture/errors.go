package capture

import (
	"errors"
	"fmt"
)

// ErrEncodeNotReady marks a surface that produced no image, typically
// because it has no size yet. The capture can be retried.
var ErrEncodeNotReady = errors.New("capture: render surface not ready")

type EncodeNotReadyError struct {
	Frame int
}

func (e *EncodeNotReadyError) Error() string {
	return fmt.Sprintf("capture: frame %d: render surface not ready", e.Frame)
}

func (e *EncodeNotReadyError) Is(target error) bool { return target == ErrEncodeNotReady }
