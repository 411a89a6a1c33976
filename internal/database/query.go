package database

import (
	"log"
	"net"

	"github.com/byznode/byznode/pkg/wire"
)

// Responder answers inbound QUERY envelopes with a snapshot of the
// local store, the read side of the bootstrap exchange Bootstrapper
// drives from the other end.
type Responder struct {
	store  *Store
	sender Sender
}

// NewResponder builds a Responder serving snapshots of store.
func NewResponder(store *Store, sender Sender) *Responder {
	return &Responder{store: store, sender: sender}
}

// OnQuery replies to from with the current contents of the store.
func (r *Responder) OnQuery(from *net.UDPAddr) {
	reply := wire.Envelope{
		Command:  wire.CmdQueryReply,
		Database: r.store.Snapshot(),
	}
	if err := r.sender.SendEnvelope(from, reply); err != nil {
		log.Printf("database: reply to QUERY from %s failed: %v", from, err)
	}
}
