package journal

import "errors"

// ErrCorrupt marks a journal line that could not be decoded.
var ErrCorrupt = errors.New("journal: corrupt entry")
