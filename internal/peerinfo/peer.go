// Package peerinfo holds the Peer record: a node's identity plus the
// liveness bookkeeping the rest of the system needs to gossip with it
// and to run consensus against it.
package peerinfo

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Peer represents one other node known to this one. Name is the
// identity; Host/Port are immutable once constructed. LastSeen and
// LastWord mutate as gossip and consensus traffic arrives, so they're
// guarded by mu rather than left as naked fields.
type Peer struct {
	Name string
	Host string
	Port int

	mu       sync.Mutex
	lastSeen time.Time
	lastWord *string
}

// New constructs a Peer with LastSeen set to now.
func New(name, host string, port int) *Peer {
	return &Peer{
		Name:     name,
		Host:     host,
		Port:     port,
		lastSeen: time.Now(),
	}
}

// NewAnonymous builds a Peer with no name, used to address a bare
// "host:port" string received inside a CONSENSUS datagram's peers list
// (spec.md §4.4) — these are addressing targets, never entries in the
// local peer table.
func NewAnonymous(host string, port int) *Peer {
	return New("", host, port)
}

// ParseAddr splits a "host:port" string into its parts.
func ParseAddr(addr string) (host string, port int, err error) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return h, port, nil
}

// Addr renders the peer's address as "host:port".
func (p *Peer) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// ResolveUDPAddr resolves the peer's address for use with a UDP socket.
func (p *Peer) ResolveUDPAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", p.Addr())
}

// Touch refreshes LastSeen to now.
func (p *Peer) Touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = time.Now()
}

// LastSeen returns the last time this peer was refreshed.
func (p *Peer) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// SetLastWord records the most recent value heard from this peer,
// typically via a CONSENSUS-REPLY. Best-effort: callers can only set
// this when they managed to resolve the reply's source address back to
// a known Peer, which address aliasing sometimes prevents (spec.md §9).
func (p *Peer) SetLastWord(word *string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastWord = word
}

// LastWord returns the most recently recorded word, or nil if none.
func (p *Peer) LastWord() *string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastWord
}

func (p *Peer) String() string {
	word := "<none>"
	if w := p.LastWord(); w != nil {
		word = *w
	}
	return fmt.Sprintf("Peer{name=%s, host=%s, port=%d, last word=%s}", p.Name, p.Host, p.Port, word)
}

// WellKnownPeers is the hard-coded bootstrap list every node gossips to
// once at startup (spec.md §6).
var WellKnownPeers = []*Peer{
	New("well-known 1", "localhost", 8411),
	New("well-known 2", "localhost", 8412),
	New("well-known 3", "localhost", 8413),
}
