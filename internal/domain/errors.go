package domain

import "errors"

// ErrFetchExhausted signals that a community's fetch ran out of retries.
// The community proceeds with whatever items were already yielded.
var ErrFetchExhausted = errors.New("fetch retries exhausted")

// ErrAggregationImpossible marks a community with zero analyzable items.
var ErrAggregationImpossible = errors.New("no analyzable items")

// ErrRunFailed is returned when every configured community hit
// ErrAggregationImpossible. It is the only fatal pipeline condition.
var ErrRunFailed = errors.New("run failed: no community yielded analyzable items")
