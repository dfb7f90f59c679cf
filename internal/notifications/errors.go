package notifications

import "errors"

// ErrNotFound is returned when a notification doesn't exist or belongs
// to another user.
var ErrNotFound = errors.New("notification not found")
