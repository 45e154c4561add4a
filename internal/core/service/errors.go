package service

import "errors"

var ErrStatsUnavailable = errors.New("sort statistics unavailable")
