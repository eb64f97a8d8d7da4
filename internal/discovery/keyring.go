package discovery

import (
	"fmt"
	"sync"
)

// KeyRing hands out API credentials round-robin. It is owned by the source
// instance rather than living in process-global state, so parallel test
// instances get independent rotation cursors.
type KeyRing struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewKeyRing builds a ring over the given credential pool.
func NewKeyRing(keys []string) (*KeyRing, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	return &KeyRing{keys: cleaned}, nil
}

// Next returns the next credential in rotation.
func (r *KeyRing) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.keys[r.cursor%len(r.keys)]
	r.cursor++
	return key
}

// Size reports the pool size, which bounds rotation attempts.
func (r *KeyRing) Size() int {
	return len(r.keys)
}
