// Package gossip implements the epidemic membership protocol: announce
// yourself to a few peers, forward what you hear to a few more, and let
// duplicate suppression keep the fan-out from growing forever. It plays
// the same role the teacher's Protocol did for Mini-Dynamo's heartbeat
// gossip, but pushes identity announcements instead of a full
// membership snapshot on every round.
package gossip

import "sync"

// Cache remembers the most recent message ID seen from each originator,
// which is enough to detect a duplicate: spec.md's dedup key is the
// pair (originator name, messageID), and since a peer only ever has one
// gossip record in flight at a time, keeping just the latest messageID
// per name is equivalent to keeping the full set of seen pairs.
type Cache struct {
	mu   sync.Mutex
	seen map[string]string // originator name -> last admitted messageID
}

// NewCache returns an empty duplicate-suppression cache.
func NewCache() *Cache {
	return &Cache{seen: make(map[string]string)}
}

// Admit reports whether (name, messageID) is new. If it is, the cache
// is updated so the same pair is recognized as a duplicate until a
// different messageID from that originator replaces it.
func (c *Cache) Admit(name, messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.seen[name]; ok && last == messageID {
		return false
	}
	c.seen[name] = messageID
	return true
}
