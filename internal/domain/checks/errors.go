package checks

import "errors"

// ErrQuotaExceeded indicates the user spent their daily check allowance.
var ErrQuotaExceeded = errors.New("daily check quota exceeded")
