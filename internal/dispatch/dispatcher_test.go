package dispatch

import (
	"net"
	"testing"

	"github.com/byznode/byznode/internal/consensus"
	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/gossip"
	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/pkg/wire"
)

// nilSender satisfies the Sender interface each of gossip, database and
// consensus define independently (same method shape, no shared type)
// by doing nothing, keeping these tests free of real network I/O.
type nilSender struct{}

func (nilSender) SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *membership.Table, *database.Store) {
	t.Helper()
	table := membership.New("self")
	store := database.New(5)
	sender := nilSender{}

	return &Dispatcher{
		Gossiper:     gossip.NewGossiper("self", "localhost", 9000, table, sender, nil, 0, 3),
		Bootstrapper: database.NewBootstrapper(store, table, sender),
		Responder:    database.NewResponder(store, sender),
		Broadcaster:  database.NewBroadcaster(store, table, sender),
		Consensus:    consensus.NewEngine(table, store, sender, 0, 0.8),
	}, table, store
}

func TestDispatchMalformedEnvelopeDoesNotPanic(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}
	d.Dispatch([]byte("not json"), addr)
}

func TestDispatchUnknownCommandDoesNotPanic(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}
	d.Dispatch([]byte(`{"command":"NOPE"}`), addr)
}

func TestDispatchGossipAdmitsPeer(t *testing.T) {
	d, table, _ := newTestDispatcher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}
	d.Dispatch([]byte(`{"command":"GOSSIP","host":"localhost","port":9002,"name":"alice","messageID":"m1"}`), addr)

	if _, ok := table.Find("alice"); !ok {
		t.Fatal("expected GOSSIP to admit alice into the peer table")
	}
}

func TestDispatchSetAppliesLocally(t *testing.T) {
	d, _, store := newTestDispatcher(t)
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}
	d.Dispatch([]byte(`{"command":"SET","index":1,"value":"hello"}`), addr)

	got, err := store.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != "hello" {
		t.Errorf("expected stored value \"hello\", got %v", got)
	}
}
