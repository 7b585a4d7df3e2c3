package queue

import "errors"

// ErrBackpressure is returned by producers when Enqueue refuses a submission.
var ErrBackpressure = errors.New("submission queue full")
