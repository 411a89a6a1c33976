// Package console implements the node's TCP operator interface: a
// line-oriented command shell, one goroutine per connection, grounded
// on the teacher's Server/graceful-shutdown idiom from cmd/dynamo/main.go
// but built directly on net.Listener rather than an HTTP router, since
// spec.md's console is a bare line protocol, not a REST API.
package console

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/byznode/byznode/internal/consensus"
	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/membership"
)

const prompt = ">>> "

// Console serves the TCP operator interface: the only place a human (or
// a script) can mutate this node's consensus/lying state or trigger a
// consensus round, by design (spec.md's diagnostics HTTP server is
// strictly read-only).
type Console struct {
	selfName string

	table     *membership.Table
	store     *database.Store
	broadcast *database.Broadcaster
	consensus *consensus.Engine

	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a Console serving the given subsystems.
func New(selfName string, table *membership.Table, store *database.Store, broadcast *database.Broadcaster, engine *consensus.Engine) *Console {
	return &Console{
		selfName:  selfName,
		table:     table,
		store:     store,
		broadcast: broadcast,
		consensus: engine,
		stopCh:    make(chan struct{}),
	}
}

// Start binds the TCP listener at addr ("" host means any interface,
// port 0 means OS-assigned) and begins accepting connections.
func (c *Console) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	c.listener = ln

	log.Printf("console: listening on %s", ln.Addr())

	c.wg.Add(1)
	go c.acceptLoop()
	return nil
}

// Addr returns the console's bound listen address. It panics if called
// before Start succeeds, matching the other Addr-style accessors in
// this tree that assume a live listener.
func (c *Console) Addr() net.Addr {
	return c.listener.Addr()
}

// Stop closes the listener, which unblocks acceptLoop, and waits for it
// to exit. In-flight connections are left to finish on their own.
func (c *Console) Stop() {
	close(c.stopCh)
	if c.listener != nil {
		c.listener.Close()
	}
	c.wg.Wait()
}

func (c *Console) acceptLoop() {
	defer c.wg.Done()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
				log.Printf("console: accept error: %v", err)
				continue
			}
		}
		go c.handleConn(conn)
	}
}

func (c *Console) handleConn(conn net.Conn) {
	defer conn.Close()

	fmt.Fprintf(conn, "Welcome to %s. Type a command, or \"exit\" to disconnect.\n%s", c.selfName, prompt)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(conn, prompt)
			continue
		}

		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]

		if command == "exit" {
			fmt.Fprint(conn, "Later, loser!\n")
			log.Printf("console: client %s disconnected", conn.RemoteAddr())
			return
		}

		c.dispatch(conn, command, args)
		fmt.Fprint(conn, prompt)
	}
}

func (c *Console) dispatch(conn net.Conn, command string, args []string) {
	switch command {
	case "peers":
		fmt.Fprintln(conn, c.formatPeers())
	case "current":
		fmt.Fprintln(conn, formatDatabase(c.store.Snapshot()))
	case "set":
		c.cliSet(conn, args)
	case "lie":
		c.store.Lie()
		fmt.Fprintln(conn, "Lying mode on.")
	case "truth":
		c.store.Truth()
		fmt.Fprintln(conn, "Lying mode off.")
	case "consensus":
		c.cliConsensus(conn, args)
	default:
		fmt.Fprintf(conn, "I don't seem to implement that command: %s\n", command)
	}
}

func (c *Console) cliSet(conn net.Conn, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(conn, "usage: set <index> <word>")
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(conn, "invalid index: %s\n", args[0])
		return
	}
	word := args[1]

	fmt.Fprintf(conn, "Setting %d to %s...\n", index, word)
	if err := c.broadcast.Set(index, &word); err != nil {
		fmt.Fprintf(conn, "failed: %v\n", err)
		return
	}
	fmt.Fprintln(conn, "Done!")
}

func (c *Console) cliConsensus(conn net.Conn, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(conn, "usage: consensus <index>")
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(conn, "invalid index: %s\n", args[0])
		return
	}

	fmt.Fprintf(conn, "Running consensus on index %d. Give it a minute..\n", index)
	go func() {
		word, err := c.consensus.StartConsensus(index)
		if err != nil {
			fmt.Fprintf(conn, "\nConsensus failed: %v\n%s", err, prompt)
			return
		}
		fmt.Fprintf(conn, "\nConsensus done!\nWord at index %d is %s\n%s", index, formatWord(word), prompt)
	}()
}

func (c *Console) formatPeers() string {
	peers := c.table.List()
	parts := make([]string, len(peers))
	for i, p := range peers {
		parts[i] = fmt.Sprintf("%s, Last word: %s", p.String(), formatWord(p.LastWord()))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatWord(w *string) string {
	if w == nil {
		return "<none>"
	}
	return *w
}

func formatDatabase(words []*string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = formatWord(w)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
