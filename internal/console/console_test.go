package console

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/byznode/byznode/internal/consensus"
	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/membership"
	"github.com/byznode/byznode/pkg/wire"
)

type nilSender struct{}

func (nilSender) SendEnvelope(addr *net.UDPAddr, env wire.Envelope) error { return nil }

func newTestConsole() (*Console, *database.Store) {
	table := membership.New("self")
	store := database.New(5)
	sender := nilSender{}
	broadcast := database.NewBroadcaster(store, table, sender)
	engine := consensus.NewEngine(table, store, sender, time.Second, 0.8)
	return New("self", table, store, broadcast, engine), store
}

func TestConsoleSetAndCurrent(t *testing.T) {
	c, _ := newTestConsole()
	server, client := net.Pipe()
	defer client.Close()

	go c.handleConn(server)

	reader := bufio.NewReader(client)
	readLine(t, reader) // welcome banner; the prompt after it stays buffered

	client.Write([]byte("set 0 hello\n"))
	readLine(t, reader) // prompt + "Setting 0 to hello..."
	readLine(t, reader) // "Done!"

	// net.Pipe is unbuffered and the console is now blocked writing its
	// prompt, so the next command must be written from another goroutine
	// while this one reads.
	go client.Write([]byte("current\n"))
	line := readLine(t, reader)
	if !strings.Contains(line, "hello") {
		t.Errorf("expected current to show 'hello', got %q", line)
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	c, _ := newTestConsole()
	server, client := net.Pipe()
	defer client.Close()

	go c.handleConn(server)

	reader := bufio.NewReader(client)
	readLine(t, reader)

	client.Write([]byte("bogus\n"))
	line := readLine(t, reader)
	if !strings.Contains(line, "don't seem to implement") {
		t.Errorf("expected unknown-command message, got %q", line)
	}
}

func TestConsoleExitClosesConnection(t *testing.T) {
	c, _ := newTestConsole()
	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		c.handleConn(server)
		close(done)
	}()

	reader := bufio.NewReader(client)
	readLine(t, reader)

	client.Write([]byte("exit\n"))
	line := readLine(t, reader)
	if !strings.Contains(line, "Later") {
		t.Errorf("expected exit farewell, got %q", line)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected handleConn to return after exit")
	}
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read line: %v", err)
	}
	return line
}
