// Package consensus implements the recursive Byzantine Oral-Messages
// protocol nodes run to settle what a database slot actually holds when
// some peers might be lying. The parallel fan-out/aggregate shape is
// grounded on the teacher's replication.Coordinator and QuorumManager:
// send to every target, collect replies into a
// mutex-guarded accumulator, and signal completion once a threshold is
// reached — except the threshold here is "everyone replied or we ran
// out of time," and the aggregation is plurality vote, not LWW.
package consensus

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"github.com/byznode/byznode/internal/peerinfo"
	"github.com/byznode/byznode/pkg/wire"
)

// Sender is the narrow slice of the node's UDP socket consensus needs.
type Sender interface {
	SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error
}

// absentMarker stands in for "no value" inside the reply multiset's
// string keys, so the empty string can still be a legitimate word.
const absentMarker = "\x00ABSENT\x00"

func keyOf(v *string) string {
	if v == nil {
		return absentMarker
	}
	return *v
}

func valueOf(key string) *string {
	if key == absentMarker {
		return nil
	}
	v := key
	return &v
}

// Instance is one live (sub-)consensus: a question sent to a fixed set
// of peers, with replies accumulated until every peer has answered or
// the deadline's wait fraction elapses.
type Instance struct {
	ID       string
	OM       int
	Index    int
	Value    *string // this node's own belief, broadcast to Peers
	Received *string // what our caller told us, folded in once waiting ends
	Peers    []*peerinfo.Peer
	Due      time.Time

	mu      sync.Mutex
	replies map[string]int
	total   int

	doneOnce sync.Once
	doneCh   chan struct{}
}

// NewInstance builds a fresh Instance with a random ID.
func NewInstance(om, index int, value, received *string, peers []*peerinfo.Peer, due time.Time) *Instance {
	return &Instance{
		ID:       uuid.NewString(),
		OM:       om,
		Index:    index,
		Value:    value,
		Received: received,
		Peers:    peers,
		Due:      due,
		replies:  make(map[string]int),
		doneCh:   make(chan struct{}),
	}
}

// Execute sends the CONSENSUS envelope to every peer, waits for replies
// up to a fraction of the remaining time until Due, then returns the
// plurality value (including Received, folded in after waiting ends so
// it never counts toward the completion threshold).
func (ins *Instance) Execute(sender Sender, waitFor float64) *string {
	env := wire.Envelope{
		Command:   wire.CmdConsensus,
		OM:        ins.OM,
		Index:     ins.Index,
		Value:     ins.Value,
		Peers:     addrStrings(ins.Peers),
		MessageID: ins.ID,
		Due:       float64(ins.Due.Unix()),
	}
	for _, p := range ins.Peers {
		addr, err := p.ResolveUDPAddr()
		if err != nil {
			log.Printf("consensus: cannot resolve %s: %v", p.Addr(), err)
			continue
		}
		if err := sender.SendEnvelope(addr, env); err != nil {
			log.Printf("consensus: send to %s failed: %v", p.Addr(), err)
		}
	}

	remaining := time.Until(ins.Due)
	wait := time.Duration(float64(remaining) * waitFor)
	if wait > 0 {
		select {
		case <-ins.doneCh:
		case <-time.After(wait):
		}
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	if ins.total == 0 {
		log.Printf("consensus: nobody replied to instance %s", ins.ID)
	}
	ins.replies[keyOf(ins.Received)]++

	return valueOf(plurality(ins.replies))
}

// Notify records a reply and, once every peer has answered, wakes
// Execute early instead of making it wait out the full deadline.
func (ins *Instance) Notify(value *string) {
	ins.mu.Lock()
	ins.replies[keyOf(value)]++
	ins.total++
	done := ins.total >= len(ins.Peers)
	ins.mu.Unlock()

	if done {
		ins.doneOnce.Do(func() { close(ins.doneCh) })
	}
}

// plurality picks the most common key in counts. Ties are broken
// deterministically by murmur3 hash so that every node computing the
// same multiset lands on the same winner regardless of map iteration
// order.
func plurality(counts map[string]int) string {
	best := ""
	bestCount := -1
	var bestHash uint64

	for key, count := range counts {
		h := murmur3.Sum64([]byte(key))
		switch {
		case count > bestCount:
			best, bestCount, bestHash = key, count, h
		case count == bestCount && h < bestHash:
			best, bestHash = key, h
		}
	}
	return best
}

func addrStrings(peers []*peerinfo.Peer) []string {
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.Addr()
	}
	return out
}
