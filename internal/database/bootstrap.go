package database

import (
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/internal/peerinfo"
	"github.com/byznode/byznode/pkg/wire"
)

const (
	maxBootstrapAttempts = 10
	replyTimeout         = 5 * time.Second
	emptyTableBackoff    = time.Second
)

// Sender is the narrow slice of the node's UDP socket database needs.
type Sender interface {
	SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error
}

// Bootstrapper fetches the replicated database contents from an
// existing peer when a node joins a cluster that already has one,
// giving up and starting empty if nobody answers — the new node is
// assumed to be first to arrive. It queries whichever peers gossip has
// admitted into table so far, the way the Python original's init_db picked a
// random member of the live peer set rather than a fixed bootstrap
// list.
type Bootstrapper struct {
	store   *Store
	table   *membership.Table
	sender  Sender
	replies chan []*string
}

// NewBootstrapper builds a Bootstrapper that will fill store by
// querying peers known to table.
func NewBootstrapper(store *Store, table *membership.Table, sender Sender) *Bootstrapper {
	return &Bootstrapper{
		store:   store,
		table:   table,
		sender:  sender,
		replies: make(chan []*string, 1),
	}
}

// Run keeps picking a random known peer and querying it until one
// answers with a plausible database, giving up after
// maxBootstrapAttempts failed attempts (including attempts where no
// peer was known yet at all) or once every known peer has proven bad.
func (b *Bootstrapper) Run() {
	badPeers := make(map[string]bool)
	attempts := 0

	for {
		peers := b.table.List()
		if len(peers) == 0 {
			attempts++
			if attempts >= maxBootstrapAttempts {
				log.Printf("database: bootstrap gave up, no peers ever appeared")
				return
			}
			time.Sleep(emptyTableBackoff)
			continue
		}

		candidate := peers[rand.Intn(len(peers))]
		if badPeers[candidate.Addr()] {
			attempts++
			if len(badPeers) >= len(peers) || attempts >= maxBootstrapAttempts {
				log.Printf("database: bootstrap gave up after %d attempts", attempts)
				return
			}
			continue
		}

		if b.tryOne(candidate) {
			return
		}
		badPeers[candidate.Addr()] = true
		attempts++
		if attempts >= maxBootstrapAttempts {
			log.Printf("database: bootstrap gave up after %d attempts", attempts)
			return
		}
	}
}

func (b *Bootstrapper) tryOne(p *peerinfo.Peer) bool {
	addr, err := p.ResolveUDPAddr()
	if err != nil {
		log.Printf("database: bootstrap cannot resolve %s: %v", p.Addr(), err)
		return false
	}

	// drain any stale reply left over from a previous timed-out attempt
	// before sending, so tryOne never reads a reply meant for a peer we
	// already gave up on.
	select {
	case <-b.replies:
	default:
	}

	if err := b.sender.SendEnvelope(addr, wire.Envelope{Command: wire.CmdQuery}); err != nil {
		log.Printf("database: bootstrap query to %s failed: %v", p.Addr(), err)
		return false
	}

	select {
	case words := <-b.replies:
		if len(words) != b.store.Size() {
			log.Printf("database: bootstrap got malformed database from %s", p.Addr())
			return false
		}
		if !b.store.IsEmpty() {
			log.Printf("database: store already populated, discarding reply from %s", p.Addr())
			return true
		}
		for i, w := range words {
			b.store.Set(i, w)
		}
		log.Printf("database: bootstrapped from %s", p.Addr())
		return true
	case <-time.After(replyTimeout):
		log.Printf("database: bootstrap query to %s timed out", p.Addr())
		return false
	}
}

// OnQueryReply feeds an inbound QUERY-REPLY envelope's database contents
// to whichever bootstrap attempt is currently waiting, if any.
func (b *Bootstrapper) OnQueryReply(env wire.Envelope) {
	select {
	case b.replies <- env.Database:
	default:
	}
}
