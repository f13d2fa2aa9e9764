package capture

import "errors"

// ErrSourceUnavailable indicates the configured audio source could not be
// opened. The session layer treats this like a denied permission.
var ErrSourceUnavailable = errors.New("audio source unavailable")
