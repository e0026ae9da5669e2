// Package syncutil provides synchronization helpers keyed by value
// rather than by identity.
package syncutil

import (
	"sync"

	"github.com/gogf/gf/encoding/ghash"
)

// NamedMutex multiplexes a fixed pool of RWMutexes over arbitrary byte
// keys. Two distinct keys may hash onto the same mutex; callers only
// rely on "same key, same mutex", never on the converse.
type NamedMutex struct {
	shards []sync.RWMutex
}

// NewNamedMutex returns a NamedMutex backed by a pool of poolSize
// mutexes (minimum 2). A prime pool size spreads keys better.
func NewNamedMutex(poolSize uint32) *NamedMutex {
	if poolSize < 2 {
		poolSize = 2
	}
	return &NamedMutex{shards: make([]sync.RWMutex, poolSize)}
}

// shard maps a key onto its mutex
func (mu *NamedMutex) shard(key []byte) *sync.RWMutex {
	return &mu.shards[ghash.SDBMHash(key)%uint32(len(mu.shards))]
}

// Lock write-locks the mutex backing key, blocking until available
func (mu *NamedMutex) Lock(key []byte) {
	mu.shard(key).Lock()
}

// Unlock releases the write lock held on key's mutex
func (mu *NamedMutex) Unlock(key []byte) {
	mu.shard(key).Unlock()
}

// RLock read-locks the mutex backing key
func (mu *NamedMutex) RLock(key []byte) {
	mu.shard(key).RLock()
}

// RUnlock releases one read lock held on key's mutex
func (mu *NamedMutex) RUnlock(key []byte) {
	mu.shard(key).RUnlock()
}
