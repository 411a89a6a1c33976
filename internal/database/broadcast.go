package database

import (
	"log"

	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/pkg/wire"
)

// Broadcaster commits a write locally and pushes it to every known
// peer with a SET envelope, the direct-write counterpart to
// Bootstrapper's pull-based replication.
type Broadcaster struct {
	store  *Store
	table  *membership.Table
	sender Sender
}

// NewBroadcaster builds a Broadcaster over store, reaching peers in
// table through sender.
func NewBroadcaster(store *Store, table *membership.Table, sender Sender) *Broadcaster {
	return &Broadcaster{store: store, table: table, sender: sender}
}

// Set commits word at index locally, then fans it out to every peer
// currently known.
func (b *Broadcaster) Set(index int, word *string) error {
	if err := b.store.Set(index, word); err != nil {
		return err
	}

	env := wire.Envelope{Command: wire.CmdSet, Index: index, Value: word}
	for _, p := range b.table.List() {
		addr, err := p.ResolveUDPAddr()
		if err != nil {
			log.Printf("database: cannot resolve %s to broadcast SET: %v", p.Addr(), err)
			continue
		}
		if err := b.sender.SendEnvelope(addr, env); err != nil {
			log.Printf("database: SET to %s failed: %v", p.Addr(), err)
		}
	}
	return nil
}

// OnSet applies an inbound SET envelope to the local store without
// re-broadcasting it: the broadcaster that originated it already
// reached everyone directly, so there's nothing further to forward.
func (b *Broadcaster) OnSet(env wire.Envelope) {
	if err := b.store.Set(env.Index, env.Value); err != nil {
		log.Printf("database: SET for out-of-range index %d", env.Index)
	}
}
