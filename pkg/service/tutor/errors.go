package tutor

import "errors"

// ErrRateLimited marks provider quota and rate limit rejections. Providers
// wrap their own errors with it so that the retry policy can see them.
var ErrRateLimited = errors.New("inference rate limited")
