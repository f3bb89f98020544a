package models

import "errors"

// ErrPermissionDenied is returned by plugins when the logged in user may not use the
// data referenced by a submission. It is never retried.
var ErrPermissionDenied = errors.New("permission denied")
