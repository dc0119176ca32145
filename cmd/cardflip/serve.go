package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/cardflip/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the card flip SSH server",
	Long: `Start an SSH server that lets remote players sit at the table.

Every SSH user name is its own account ("ssh:<user>"), funded once from the
faucet on first connect. All players share one house, one treasury and one
chain; blocks are sealed every chain.block_interval.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise uses ssh.host_key from the configuration, generated if missing

Examples:
  cardflip serve                           # Listen on ssh.address from config
  cardflip serve --ssh :2222               # Listen on port 2222
  cardflip serve --host-key ./my_host_key  # Use specific host key
  cardflip serve --db ./history.db         # Use specific database

Users can connect with:
  ssh localhost -p 2323`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides config)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSSHAddr != "" {
		cfg.SSH.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKey = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.SSH.IdleTimeout = flagIdleTimeout
	}

	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	h, err := openHouse(cfg, logger, true)
	if err != nil {
		return err
	}
	defer h.Close()

	server, err := tui.NewSSHServer(h, cfg.SSH, logger.WithPrefix("ssh"))
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	h.Start()
	fmt.Printf("Starting card flip SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
