package entity

import "time"

// CacheEntry is one stored aggregation result
type CacheEntry struct {
	Key                 string
	Port                string
	ActivityType        string
	YachtFlag           string
	StoredAtEpochMillis int64
	Payload             *AggregatedDocument
	SizeBytes           int
}

// StoredAt returns the storage time
func (e *CacheEntry) StoredAt() time.Time {
	return time.UnixMilli(e.StoredAtEpochMillis)
}

// Age returns how old the entry is at now
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt())
}
