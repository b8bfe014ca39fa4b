package cache

import (
	"sync/atomic"
	"time"
)

// Priority orders entries for compaction. Lower priorities go first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	// PriorityNeverRemove entries only leave the cache by expiring or by Remove.
	PriorityNeverRemove
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityNeverRemove:
		return "never_remove"
	default:
		return "unknown"
	}
}

// EntryOptions is the expiration policy attached to a value at write time.
//
// AbsoluteExpirationRelativeToNow takes precedence over AbsoluteExpiration.
// With both an absolute deadline and a sliding window the entry expires at
// whichever comes first. Size defaults to 1 and only matters when the cache
// has a size limit.
type EntryOptions struct {
	AbsoluteExpiration              time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
	Priority                        Priority
	Size                            int64
}

type entry[V any] struct {
	value    V
	priority Priority
	size     int64
	written  time.Time
	deadline time.Time // zero means no absolute expiration
	sliding  time.Duration

	lastAccess atomic.Int64 // unix nanoseconds
}

func newEntry[V any](value V, opts EntryOptions, now time.Time) *entry[V] {
	e := &entry[V]{
		value:    value,
		priority: opts.Priority,
		size:     opts.Size,
		written:  now,
		deadline: opts.AbsoluteExpiration,
		sliding:  opts.SlidingExpiration,
	}
	if opts.AbsoluteExpirationRelativeToNow > 0 {
		e.deadline = now.Add(opts.AbsoluteExpirationRelativeToNow)
	}
	if e.size <= 0 {
		e.size = 1
	}
	e.touch(now)
	return e
}

func (e *entry[V]) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
}

func (e *entry[V]) lastAccessed() time.Time {
	return time.Unix(0, e.lastAccess.Load())
}

func (e *entry[V]) expired(now time.Time) bool {
	if !e.deadline.IsZero() && !now.Before(e.deadline) {
		return true
	}
	if e.sliding > 0 && now.Sub(e.lastAccessed()) >= e.sliding {
		return true
	}
	return false
}
