// Package node wires every subsystem together into one running process:
// the UDP socket, the TCP console, the diagnostics HTTP server, and the
// background loops that drive gossip, pruning, and bootstrap — grounded
// on the teacher's cmd/dynamo/main.go composition, generalized from one
// big main() into a Runtime type with explicit Start/Stop ordering.
package node

import (
	"encoding/json"
	"log"
	"net"

	"github.com/byznode/byznode/internal/dispatch"
	"github.com/byznode/byznode/pkg/wire"
)

// Socket owns the single UDP connection this node sends and receives
// on. Concurrent sends are safe because net.UDPConn is itself
// safe for concurrent use; there's no mutex here the way the teacher's
// Protocol held one around its net.UDPConn, since Go's documented
// guarantee makes that extra lock unnecessary — a deliberate departure
// from the Python original's single coarse socket lock.
type Socket struct {
	conn       *net.UDPConn
	dispatcher *dispatch.Dispatcher

	stopCh chan struct{}
	done   chan struct{}
}

// NewSocket binds a UDP socket at addr ("" host means any interface, 0
// port means OS-assigned) and returns a Socket ready to serve once
// Serve is called.
func NewSocket(addr string, dispatcher *dispatch.Dispatcher) (*Socket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Socket{
		conn:       conn,
		dispatcher: dispatcher,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// LocalAddr returns the bound address.
func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// SendEnvelope encodes env as JSON and sends it to addr. It satisfies
// the Sender interface each of the gossip, database, and consensus
// packages define independently for the same shape.
func (s *Socket) SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(data, addr)
	return err
}

// Serve reads datagrams until Stop is called, spawning one goroutine
// per datagram to decode and dispatch it — there's no worker pool here
// because consensus/gossip handling is lightweight and bursts are rare
// enough that per-message goroutines are simpler and cheap enough.
func (s *Socket) Serve() {
	defer close(s.done)

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.Printf("node: udp read error: %v", err)
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		go s.dispatcher.Dispatch(data, from)
	}
}

// Stop closes the socket, which unblocks Serve, and waits for it to
// return.
func (s *Socket) Stop() {
	close(s.stopCh)
	s.conn.Close()
	<-s.done
}
