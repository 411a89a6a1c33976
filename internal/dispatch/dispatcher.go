// Package dispatch decodes inbound UDP datagrams and routes them to
// whichever subsystem owns that command, the way the teacher's
// Protocol.handleMessage decoded a single message type — generalized
// here to the seven commands in pkg/wire, spawning one goroutine per
// datagram the way the original Python's selector loop spawned one
// handler call per readable socket event.
package dispatch

import (
	"encoding/json"
	"log"
	"net"

	"github.com/byznode/byznode/internal/consensus"
	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/gossip"
	"github.com/byznode/byznode/pkg/wire"
)

// Dispatcher wires together every subsystem that handles an inbound
// envelope.
type Dispatcher struct {
	Gossiper     *gossip.Gossiper
	Bootstrapper *database.Bootstrapper
	Responder    *database.Responder
	Broadcaster  *database.Broadcaster
	Consensus    *consensus.Engine
}

// Dispatch decodes data and routes it by command. Malformed JSON and
// unknown commands are both logged and dropped; neither ever crashes
// the receive loop.
func (d *Dispatcher) Dispatch(data []byte, from *net.UDPAddr) {
	var env wire.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("dispatch: malformed envelope from %s: %v", from, err)
		return
	}

	switch env.Command {
	case wire.CmdGossip:
		d.Gossiper.OnGossip(env)
	case wire.CmdGossipReply:
		d.Gossiper.OnGossipReply(env)
	case wire.CmdQuery:
		d.Responder.OnQuery(from)
	case wire.CmdQueryReply:
		d.Bootstrapper.OnQueryReply(env)
	case wire.CmdSet:
		d.Broadcaster.OnSet(env)
	case wire.CmdConsensus:
		d.Consensus.OnConsensus(env, from)
	case wire.CmdConsensusReply:
		d.Consensus.OnConsensusReply(env, from)
	default:
		log.Printf("dispatch: unknown command %q from %s", env.Command, from)
	}
}
