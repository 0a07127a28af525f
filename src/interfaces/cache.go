package interfaces

import "time"

// -----------------------------------------------------------------------------
// ICache is a key/value store with per-entry TTL.
// Get never fails: expired and unknown keys are both reported as absent.
// -----------------------------------------------------------------------------

type ICache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string) int
	Len() int
}
