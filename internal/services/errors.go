package services

import "errors"

// ErrValidation marks malformed input rejected synchronously at index/update
// time. Unknown product or user IDs on read paths are not errors; they degrade
// to empty results.
var ErrValidation = errors.New("validation failed")
