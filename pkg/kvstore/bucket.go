package kvstore

import (
	"sort"
	"sync"
)

// bucket is a mutex-guarded string map. Every private namespace is one bucket,
// and each shared store is one bucket, so each carries its own lock and
// tenants never contend with each other on data access.
type bucket struct {
	mu   sync.RWMutex
	data map[string]string
}

func newBucket() *bucket {
	return &bucket{data: make(map[string]string)}
}

func (n *bucket) set(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data[key] = value
}

func (n *bucket) get(key string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.data[key]
	return v, ok
}

func (n *bucket) has(key string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.data[key]
	return ok
}

// delete is a no-op for absent keys.
func (n *bucket) delete(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.data, key)
}

func (n *bucket) clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = make(map[string]string)
}

func (n *bucket) keys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	keys := make([]string, 0, len(n.data))
	for k := range n.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// values returns the values ordered by their keys.
func (n *bucket) values() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	keys := make([]string, 0, len(n.data))
	for k := range n.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, n.data[k])
	}
	return values
}

// snapshot returns a copy of the mapping; the internal map never aliases out.
func (n *bucket) snapshot() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]string, len(n.data))
	for k, v := range n.data {
		out[k] = v
	}
	return out
}

func (n *bucket) restore(data map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = make(map[string]string, len(data))
	for k, v := range data {
		n.data[k] = v
	}
}
