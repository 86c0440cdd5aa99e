// File: utils/constants.go
package utils

import "time"

// QuoteCachePrefix is the prefix used for Redis cost-quote cache keys.
const QuoteCachePrefix = "quote:"

// QuoteCacheTTL is the time-to-live for cost-quote cache entries.
const QuoteCacheTTL = 5 * time.Minute

// TripGenLockKey is the Redis key guarding a trip-generation range run.
const TripGenLockKey = "tripgen:run-lock"

// TripGenLockTTL bounds how long a run lock can be held before it expires.
const TripGenLockTTL = 30 * time.Minute
