package node

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/byznode/byznode/internal/config"
	"github.com/byznode/byznode/internal/consensus"
	"github.com/byznode/byznode/internal/console"
	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/diagnostics"
	"github.com/byznode/byznode/internal/dispatch"
	"github.com/byznode/byznode/internal/gossip"
	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/internal/metrics"
)

// Runtime is one running byznode process: every subsystem the node
// needs, composed by field rather than embedding, so Start and Stop can
// sequence them explicitly instead of relying on an implicit
// inheritance chain the way the Python original's class hierarchy did
// (spec.md's composition-over-inheritance design note).
type Runtime struct {
	cfg *config.Config

	socket      *Socket
	table       *membership.Table
	store       *database.Store
	pruner      *membership.Pruner
	gossiper    *gossip.Gossiper
	bootstrap   *database.Bootstrapper
	responder   *database.Responder
	broadcaster *database.Broadcaster
	consensus   *consensus.Engine
	console     *console.Console
	metrics     *metrics.Metrics
	diagnostics *diagnostics.Server
}

// New assembles a Runtime from cfg without starting anything.
func New(cfg *config.Config) (*Runtime, error) {
	table := membership.New(cfg.NodeName)
	store := database.New(cfg.DBSize)
	mtr := metrics.New()

	r := &Runtime{
		cfg:     cfg,
		table:   table,
		store:   store,
		metrics: mtr,
	}

	dispatcher := &dispatch.Dispatcher{}

	sock, err := NewSocket(fmt.Sprintf("%s:%d", cfg.Host, cfg.UDPPort), dispatcher)
	if err != nil {
		return nil, fmt.Errorf("failed to bind udp socket: %w", err)
	}
	r.socket = sock

	local := sock.LocalAddr()
	r.gossiper = gossip.NewGossiper(cfg.NodeName, local.IP.String(), local.Port, table, sock, mtr, cfg.GossipInterval, cfg.ForwardAmount)
	r.pruner = membership.NewPruner(table, cfg.PruneInterval, cfg.PruneTimeout, mtr)
	r.bootstrap = database.NewBootstrapper(store, table, sock)
	r.responder = database.NewResponder(store, sock)
	r.broadcaster = database.NewBroadcaster(store, table, sock)
	r.consensus = consensus.NewEngine(table, store, sock, cfg.ConsensusTime, cfg.ConsensusWaitFor).WithRecorder(mtr)
	r.console = console.New(cfg.NodeName, table, store, r.broadcaster, r.consensus)
	r.diagnostics = diagnostics.NewServer(table, store)

	dispatcher.Gossiper = r.gossiper
	dispatcher.Bootstrapper = r.bootstrap
	dispatcher.Responder = r.responder
	dispatcher.Broadcaster = r.broadcaster
	dispatcher.Consensus = r.consensus

	return r, nil
}

// Start brings every subsystem up. Order matters: the socket must be
// receiving before anything sends, since a send can provoke an
// immediate reply.
func (r *Runtime) Start() error {
	go r.socket.Serve()

	r.pruner.Start()
	r.gossiper.Start()
	go r.bootstrap.Run()

	if err := r.console.Start(fmt.Sprintf("%s:0", r.cfg.Host)); err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	if err := r.diagnostics.Start(r.cfg.DiagnosticsAddr); err != nil {
		return fmt.Errorf("failed to start diagnostics server: %w", err)
	}

	log.Printf("node: %s ready, udp=%s console=%s diagnostics=%s", r.cfg.NodeName, r.socket.LocalAddr(), r.console.Addr(), r.cfg.DiagnosticsAddr)
	return nil
}

// Stop brings every subsystem down in roughly reverse order, giving the
// diagnostics server a bounded grace period the way the teacher's
// main() gave its HTTP server one.
func (r *Runtime) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.diagnostics.Stop(ctx); err != nil {
		log.Printf("node: diagnostics shutdown error: %v", err)
	}
	r.console.Stop()
	r.gossiper.Stop()
	r.pruner.Stop()
	r.socket.Stop()
}
