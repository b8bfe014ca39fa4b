package cache

import "time"

type settings struct {
	name                 string
	now                  func() time.Time
	scanInterval         time.Duration
	sizeLimit            int64
	compactionPercentage float64
}

func defaultSettings() settings {
	return settings{
		name:                 "cache",
		now:                  time.Now,
		scanInterval:         time.Minute,
		compactionPercentage: 0.05,
	}
}

// Option configures a Memory cache.
type Option func(*settings)

// WithName sets the name used in log records.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithClock replaces time.Now for every expiration decision.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScanInterval sets how often the background sweep removes expired
// entries. Zero or negative disables the sweep; expired entries are then
// only dropped when read or compacted.
func WithScanInterval(d time.Duration) Option {
	return func(s *settings) { s.scanInterval = d }
}

// WithSizeLimit bounds the sum of entry sizes. Zero means unbounded.
func WithSizeLimit(n int64) Option {
	return func(s *settings) { s.sizeLimit = n }
}

// WithCompactionPercentage sets the fraction of entries reclaimed when a
// write would exceed the size limit.
func WithCompactionPercentage(f float64) Option {
	return func(s *settings) {
		if f > 0 && f <= 1 {
			s.compactionPercentage = f
		}
	}
}
