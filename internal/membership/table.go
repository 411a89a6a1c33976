// Package membership tracks the other peers this node currently knows
// about, the way the teacher's internal/gossip.MembershipList tracks
// cluster members: a name-keyed map guarded by a single RWMutex, with
// update/find/list/remove operations instead of a vector-clock merge.
package membership

import (
	"sync"
	"time"

	"github.com/byznode/byznode/internal/peerinfo"
)

// Table is the set of peers this node currently knows about, keyed by
// name. It never holds an entry for the local node itself (spec.md
// §4.1's self-echo suppression happens at the caller, before Update is
// reached, but Table.Update also refuses a name equal to selfName as a
// second line of defense).
type Table struct {
	mu       sync.RWMutex
	selfName string
	peers    map[string]*peerinfo.Peer
}

// New returns an empty Table for a node named selfName.
func New(selfName string) *Table {
	return &Table{
		selfName: selfName,
		peers:    make(map[string]*peerinfo.Peer),
	}
}

// Update records that a peer was just heard from, creating an entry if
// one doesn't exist yet or refreshing LastSeen if it does. It returns
// the Peer and whether it was newly admitted.
func (t *Table) Update(name, host string, port int) (peer *peerinfo.Peer, isNew bool) {
	if name == t.selfName {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.peers[name]; ok {
		existing.Touch()
		return existing, false
	}

	p := peerinfo.New(name, host, port)
	t.peers[name] = p
	return p, true
}

// Find looks a peer up by name. The second return value is false if no
// such peer is known; callers must treat this as "maybe the name has
// changed address and the old entry rotted out," not as a hard error
// (spec.md §9's address-aliasing caveat).
func (t *Table) Find(name string) (*peerinfo.Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[name]
	return p, ok
}

// FindByAddr looks a peer up by its "host:port" address. This is
// best-effort: a peer's observed source address can differ from the
// host:port it announced itself with (NAT, multiple local interfaces),
// so a miss here doesn't mean the peer is unknown (spec.md §9).
func (t *Table) FindByAddr(addr string) (*peerinfo.Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.peers {
		if p.Addr() == addr {
			return p, true
		}
	}
	return nil, false
}

// List returns a snapshot slice of every known peer.
func (t *Table) List() []*peerinfo.Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*peerinfo.Peer, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, p)
	}
	return out
}

// Size returns the number of known peers, not counting self.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// Remove drops a peer by name.
func (t *Table) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, name)
}

// PruneOlderThan removes every peer whose LastSeen is more than maxAge
// before now, returning the names removed. This is the
// operation the background pruner (pruner.go) calls on a ticker.
func (t *Table) PruneOlderThan(maxAge time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	var pruned []string
	for name, p := range t.peers {
		if now.Sub(p.LastSeen()) > maxAge {
			delete(t.peers, name)
			pruned = append(pruned, name)
		}
	}
	return pruned
}
