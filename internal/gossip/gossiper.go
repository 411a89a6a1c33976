package gossip

import (
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/internal/peerinfo"
	"github.com/byznode/byznode/pkg/wire"
)

// Sender is the narrow slice of the node's UDP socket the gossiper
// needs. It's defined here, not in internal/node, so this package never
// imports the package that owns the concrete socket — node depends on
// gossip, not the other way around.
type Sender interface {
	SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error
}

// Recorder receives gossip activity counts for the diagnostics server.
// A nil Recorder is valid: every call site checks before recording.
type Recorder interface {
	GossipAdmitted()
	GossipForwarded()
	GossipDuplicate()
}

// Gossiper drives the announce/forward side of the protocol: it
// periodically (re)announces this node to known peers, and on receipt
// of a fresh announcement forwards it to a handful of others, the way
// the teacher's Protocol.gossipLoop periodically pushed a membership
// snapshot to one random peer — except here the payload is a single
// identity record, not the whole table, and every fresh one fans out
// instead of going to just one target.
type Gossiper struct {
	selfName string
	selfHost string
	selfPort int

	table         *membership.Table
	cache         *Cache
	sender        Sender
	recorder      Recorder
	interval      time.Duration
	forwardAmount int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewGossiper builds a Gossiper for a node identified by (name, host,
// port), forwarding admitted announcements to forwardAmount peers.
// recorder may be nil.
func NewGossiper(selfName, selfHost string, selfPort int, table *membership.Table, sender Sender, recorder Recorder, interval time.Duration, forwardAmount int) *Gossiper {
	return &Gossiper{
		selfName:      selfName,
		selfHost:      selfHost,
		selfPort:      selfPort,
		table:         table,
		cache:         NewCache(),
		sender:        sender,
		recorder:      recorder,
		interval:      interval,
		forwardAmount: forwardAmount,
		stopCh:        make(chan struct{}),
	}
}

// Start kicks off the warm-up/loop goroutine: wait a second to let
// whatever launched this node finish its own setup, gossip once to the
// well-known bootstrap peers, wait another three seconds, then begin
// the steady GOSSIP_INTERVAL re-announce loop.
func (g *Gossiper) Start() {
	g.wg.Add(1)
	go g.run()
}

// Stop signals the warm-up/loop goroutine to exit and waits for it.
func (g *Gossiper) Stop() {
	close(g.stopCh)
	g.wg.Wait()
}

func (g *Gossiper) run() {
	defer g.wg.Done()

	if g.sleep(time.Second) {
		return
	}
	g.announceTo(peerinfo.WellKnownPeers)

	if g.sleep(3 * time.Second) {
		return
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.announceRound()
		}
	}
}

// sleep waits for d or until Stop is called, whichever comes first. It
// reports whether it returned early because of Stop.
func (g *Gossiper) sleep(d time.Duration) bool {
	select {
	case <-g.stopCh:
		return true
	case <-time.After(d):
		return false
	}
}

// announceRound re-announces this node to every peer currently known,
// the way spec.md's outbound round refreshes the whole snapshot each
// time rather than a sample — FORWARD_AMOUNT only bounds how far a
// received announcement gets forwarded, not this node's own round.
func (g *Gossiper) announceRound() {
	known := g.table.List()
	if len(known) == 0 {
		g.announceTo(peerinfo.WellKnownPeers)
		return
	}
	g.announceTo(known)
}

func (g *Gossiper) announceTo(targets []*peerinfo.Peer) {
	env := wire.Envelope{
		Command:   wire.CmdGossip,
		Host:      g.selfHost,
		Port:      g.selfPort,
		Name:      g.selfName,
		MessageID: uuid.NewString(),
	}
	for _, p := range targets {
		g.send(p, env)
	}
}

func (g *Gossiper) send(p *peerinfo.Peer, env wire.Envelope) {
	addr, err := p.ResolveUDPAddr()
	if err != nil {
		log.Printf("gossip: cannot resolve %s: %v", p.Addr(), err)
		return
	}
	if err := g.sender.SendEnvelope(addr, env); err != nil {
		log.Printf("gossip: send to %s failed: %v", p.Addr(), err)
	}
}

// OnGossip handles an inbound GOSSIP envelope: self-echoes and
// duplicates are dropped silently, a fresh announcement admits its
// originator into the peer table, replies with our own identity, and
// forwards the announcement on to forwardAmount other known peers.
func (g *Gossiper) OnGossip(env wire.Envelope) {
	if env.Name == "" || env.Name == g.selfName {
		return
	}
	if !g.cache.Admit(env.Name, env.MessageID) {
		if g.recorder != nil {
			g.recorder.GossipDuplicate()
		}
		return
	}
	if g.recorder != nil {
		g.recorder.GossipAdmitted()
	}

	g.table.Update(env.Name, env.Host, env.Port)

	reply := wire.Envelope{
		Command: wire.CmdGossipReply,
		Host:    g.selfHost,
		Port:    g.selfPort,
		Name:    g.selfName,
	}
	if addr, err := net.ResolveUDPAddr("udp", peerinfo.NewAnonymous(env.Host, env.Port).Addr()); err == nil {
		if err := g.sender.SendEnvelope(addr, reply); err != nil {
			log.Printf("gossip: reply to %s:%d failed: %v", env.Host, env.Port, err)
		}
	}

	forward := wire.Envelope{
		Command:   wire.CmdGossip,
		Host:      env.Host,
		Port:      env.Port,
		Name:      env.Name,
		MessageID: env.MessageID,
	}
	for _, p := range sample(excludeByName(g.table.List(), env.Name), g.forwardAmount) {
		g.send(p, forward)
		if g.recorder != nil {
			g.recorder.GossipForwarded()
		}
	}
}

// OnGossipReply admits the replying peer into the table. No forwarding:
// a reply is a direct answer, not something to keep spreading.
func (g *Gossiper) OnGossipReply(env wire.Envelope) {
	if env.Name == "" || env.Name == g.selfName {
		return
	}
	g.table.Update(env.Name, env.Host, env.Port)
}

func excludeByName(peers []*peerinfo.Peer, name string) []*peerinfo.Peer {
	out := make([]*peerinfo.Peer, 0, len(peers))
	for _, p := range peers {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// sample returns up to n peers chosen at random from in, without
// replacement, mirroring the teacher's rand.Intn-based peer selection.
func sample(in []*peerinfo.Peer, n int) []*peerinfo.Peer {
	if n >= len(in) {
		return in
	}
	shuffled := make([]*peerinfo.Peer, len(in))
	copy(shuffled, in)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}
