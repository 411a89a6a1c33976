package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byznode/byznode/internal/config"
	"github.com/byznode/byznode/internal/node"
)

var (
	version = "1.0.0"

	flagConfigFile      string
	flagNodeName        string
	flagHost            string
	flagDiagnosticsAddr string
	flagDBSize          int
)

func main() {
	root := &cobra.Command{
		Use:     "byznode [udp-port]",
		Short:   "A gossiping, Byzantine-consensus word store",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}

	root.Flags().StringVar(&flagConfigFile, "config", "", "configuration file path")
	root.Flags().StringVar(&flagNodeName, "node-name", "", "this node's gossip identity (default: peer-<pid>)")
	root.Flags().StringVar(&flagHost, "host", "0.0.0.0", "address to bind the UDP socket and TCP console to")
	root.Flags().StringVar(&flagDiagnosticsAddr, "diagnostics-addr", "127.0.0.1:0", "address for the read-only diagnostics HTTP server")
	root.Flags().IntVar(&flagDBSize, "db-size", 0, "override the fixed database size (0 keeps the configured default)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// run implements the argv[1]=<udp-port> grammar this node has always
// used: the one optional positional argument is the UDP port; when it's
// absent the node binds an OS-assigned ephemeral port instead. Every
// other setting is a flag or config file override.
func run(cmd *cobra.Command, args []string) error {
	var port int
	if len(args) == 1 {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid udp port %q: %w", args[0], err)
		}
		port = p
	}

	var cfg *config.Config
	var err error
	if flagConfigFile != "" {
		cfg, err = config.LoadFromFile(flagConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	cfg.UDPPort = port
	if flagNodeName != "" {
		cfg.NodeName = flagNodeName
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagDiagnosticsAddr != "" {
		cfg.DiagnosticsAddr = flagDiagnosticsAddr
	}
	if flagDBSize > 0 {
		cfg.DBSize = flagDBSize
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cmd.Printf("starting byznode %q on udp port %d\n", cfg.NodeName, cfg.UDPPort)

	rt, err := node.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build node: %w", err)
	}
	if err := rt.Start(); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cmd.Println("shutting down...")
	rt.Stop()
	cmd.Println("shutdown complete")
	return nil
}
