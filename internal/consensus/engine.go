package consensus

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/internal/peerinfo"
	"github.com/byznode/byznode/pkg/wire"
)

// Engine organizes and participates in recursive Byzantine
// Oral-Messages consensus over the local database, playing the role
// the teacher's Coordinator played for replicated reads and writes:
// owning the fan-out/aggregate logic and the registry of in-flight
// operations, with the store as its only piece of durable state.
type Engine struct {
	table    *membership.Table
	store    *database.Store
	sender   Sender
	recorder Recorder

	consensusTime time.Duration
	waitFor       float64

	mu         sync.Mutex
	registered map[string]*Instance
}

// Recorder receives consensus activity counts for the diagnostics
// server. A nil Recorder is valid.
type Recorder interface {
	ConsensusStarted()
	ConsensusDone()
	ConsensusReply()
}

// NewEngine builds an Engine bound to table and store, using sender to
// reach other peers. It starts with no recorder; set one with
// WithRecorder.
func NewEngine(table *membership.Table, store *database.Store, sender Sender, consensusTime time.Duration, waitFor float64) *Engine {
	return &Engine{
		table:         table,
		store:         store,
		sender:        sender,
		consensusTime: consensusTime,
		waitFor:       waitFor,
		registered:    make(map[string]*Instance),
	}
}

// WithRecorder sets the Engine's activity recorder.
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// DetermineOM computes the maximum Oral-Messages recursion level this
// node can support given how many peers it currently knows: m =
// floor(peers / 3).
func (e *Engine) DetermineOM() int {
	return e.table.Size() / 3
}

// StartConsensus is the top-level entry point (driven by the console's
// "consensus" command): it runs a full OM(m) consensus on index and
// commits the agreed value to the local store.
func (e *Engine) StartConsensus(index int) (*string, error) {
	value, err := e.store.Get(index)
	if err != nil {
		return nil, err
	}

	om := e.DetermineOM()
	peers := e.table.List()
	due := time.Now().Add(e.consensusTime)

	result := e.doConsensus(om, index, value, nil, peers, due)
	if err := e.store.Set(index, result); err != nil {
		return nil, err
	}
	return result, nil
}

// doConsensus runs one (sub-)consensus: register an Instance, execute
// it, unregister, and return the plurality result. Unlike the top-level
// StartConsensus, it never writes the store itself — only the node that
// initiated the whole round commits the final answer.
func (e *Engine) doConsensus(om, index int, value, received *string, peers []*peerinfo.Peer, due time.Time) *string {
	ins := NewInstance(om, index, value, received, peers, due)

	e.mu.Lock()
	e.registered[ins.ID] = ins
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.ConsensusStarted()
	}

	result := ins.Execute(e.sender, e.waitFor)

	if e.recorder != nil {
		e.recorder.ConsensusDone()
	}

	e.mu.Lock()
	delete(e.registered, ins.ID)
	e.mu.Unlock()

	return result
}

// OnConsensus handles an inbound CONSENSUS envelope. At OM 0, or while
// this node is lying, it answers immediately from its own (possibly
// tainted) belief instead of recursing: a lying node never genuinely
// participates in the sub-consensus, it only taints its reply.
func (e *Engine) OnConsensus(env wire.Envelope, from *net.UDPAddr) {
	var result *string

	if env.OM == 0 || e.store.IsLying() {
		word, err := e.store.Get(env.Index)
		if err != nil {
			log.Printf("consensus: CONSENSUS for out-of-range index %d from %s", env.Index, from)
			return
		}
		result = word
	} else {
		ownBelief, err := e.store.Get(env.Index)
		if err != nil {
			log.Printf("consensus: CONSENSUS for out-of-range index %d from %s", env.Index, from)
			return
		}
		peers := parseAnonymousPeers(env.Peers)
		due := time.Unix(int64(env.Due), 0)
		result = e.doConsensus(env.OM-1, env.Index, ownBelief, env.Value, peers, due)
	}

	reply := wire.Envelope{
		Command: wire.CmdConsensusReply,
		Value:   result,
		ReplyTo: env.MessageID,
	}
	if err := e.sender.SendEnvelope(from, reply); err != nil {
		log.Printf("consensus: reply to %s failed: %v", from, err)
	}
}

// OnConsensusReply routes an inbound CONSENSUS-REPLY to whichever
// Instance is waiting on it, and best-effort records the replying
// peer's word if its address happens to match a known peer (spec.md's
// address-aliasing caveat means this sometimes silently does nothing).
func (e *Engine) OnConsensusReply(env wire.Envelope, from *net.UDPAddr) {
	e.mu.Lock()
	ins, ok := e.registered[env.ReplyTo]
	e.mu.Unlock()

	if ok {
		ins.Notify(env.Value)
	}
	if e.recorder != nil {
		e.recorder.ConsensusReply()
	}

	if peer, found := e.table.FindByAddr(from.String()); found {
		peer.SetLastWord(env.Value)
	}
}

func parseAnonymousPeers(addrs []string) []*peerinfo.Peer {
	out := make([]*peerinfo.Peer, 0, len(addrs))
	for _, a := range addrs {
		host, port, err := peerinfo.ParseAddr(a)
		if err != nil {
			continue
		}
		out = append(out, peerinfo.NewAnonymous(host, port))
	}
	return out
}
