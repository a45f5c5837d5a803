// Package kvstore provides the short-TTL key-value side cache shared by the
// token lifecycle and the drive file-discovery components.
package kvstore

import "time"

// Store is a process-wide key-value cache with per-entry TTLs. Writes are full
// key overwrites; concurrent writers for the same key are last-write-wins.
type Store interface {
	Get(key string) (any, bool)
	Put(key string, value any, ttl time.Duration)
	Forget(key string)
}
