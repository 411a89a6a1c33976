// Package metrics exposes this node's gossip, membership, and consensus
// activity as Prometheus collectors, grounded on the pack's
// promauto-based pattern (see ruvnet-alienator's pkg/metrics) rather
// than hand-rolled counters, since prometheus/client_golang is already
// part of the dependency stack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector this node reports on its diagnostics
// endpoint.
type Metrics struct {
	gossipAdmitted   prometheus.Counter
	gossipForwarded  prometheus.Counter
	gossipDuplicate  prometheus.Counter
	peerTableSize    prometheus.Gauge
	consensusStarted prometheus.Counter
	consensusDone    prometheus.Counter
	consensusReplies prometheus.Counter
}

// New registers and returns a fresh set of collectors against the
// default Prometheus registry.
func New() *Metrics {
	return &Metrics{
		gossipAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_gossip_admitted_total",
			Help: "Number of GOSSIP announcements admitted as new.",
		}),
		gossipForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_gossip_forwarded_total",
			Help: "Number of GOSSIP announcements forwarded to other peers.",
		}),
		gossipDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_gossip_duplicate_total",
			Help: "Number of GOSSIP announcements dropped as duplicates.",
		}),
		peerTableSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "byznode_peer_table_size",
			Help: "Current number of peers known to this node.",
		}),
		consensusStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_consensus_started_total",
			Help: "Number of (sub-)consensus instances started.",
		}),
		consensusDone: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_consensus_completed_total",
			Help: "Number of (sub-)consensus instances that reached a result.",
		}),
		consensusReplies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "byznode_consensus_replies_total",
			Help: "Number of CONSENSUS-REPLY envelopes received.",
		}),
	}
}

func (m *Metrics) GossipAdmitted()   { m.gossipAdmitted.Inc() }
func (m *Metrics) GossipForwarded()  { m.gossipForwarded.Inc() }
func (m *Metrics) GossipDuplicate()  { m.gossipDuplicate.Inc() }
func (m *Metrics) SetPeerTableSize(n int) { m.peerTableSize.Set(float64(n)) }
func (m *Metrics) ConsensusStarted() { m.consensusStarted.Inc() }
func (m *Metrics) ConsensusDone()    { m.consensusDone.Inc() }
func (m *Metrics) ConsensusReply()   { m.consensusReplies.Inc() }
