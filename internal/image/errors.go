package imagepkg

import "errors"

// ErrImageProcessing wraps every failure to decode, composite or encode a poster.
var ErrImageProcessing = errors.New("image processing failed")
