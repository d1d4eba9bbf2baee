package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arclens/glassctl/internal/config"
	"github.com/arclens/glassctl/internal/connector"
	"github.com/arclens/glassctl/internal/glass"
	"github.com/arclens/glassctl/internal/settings"
	"github.com/arclens/glassctl/internal/transport"
	"github.com/arclens/glassctl/internal/tui"
)

// CLI is the root command structure for glassctl.
type CLI struct {
	Verbose bool `short:"v" help:"Enable verbose debug output"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Launch interactive pairing TUI (default)"`

	Discover DiscoverCmd `cmd:"" help:"Scan for nearby glasses"`
	Pair     PairCmd     `cmd:"" help:"Discover and pair with both glasses"`
	Verify   VerifyCmd   `cmd:"" help:"Verify a previously saved pairing"`
	Unpair   UnpairCmd   `cmd:"" help:"Forget the saved pairing"`
	Silent   SilentCmd   `cmd:"" help:"Toggle silent mode"`
	Battery  BatteryCmd  `cmd:"" help:"Show battery levels"`
	Status   StatusCmd   `cmd:"" help:"Show the saved pairing record"`
}

// newConnector builds a fully wired connector for one command invocation.
func newConnector(globals *CLI) (*connector.Connector, error) {
	config.Verbose = globals.Verbose

	level := slog.LevelInfo
	if globals.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := settings.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return connector.New(transport.NewBluetooth(), s, log), nil
}

// --- TUI Command ---

type TuiCmd struct{}

func (c *TuiCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	return tui.Run(conn)
}

// --- Pairing Commands ---

type DiscoverCmd struct {
	Timeout time.Duration `default:"15s" help:"Scan duration"`
}

func (c *DiscoverCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}

	result, err := conn.Pairing.DiscoverGlasses(c.Timeout)
	if err != nil {
		return err
	}
	if len(result) == 0 {
		fmt.Println("No glasses found.")
		return nil
	}
	for _, side := range glass.Sides() {
		unit, ok := result[side]
		if !ok {
			fmt.Printf("%-5s  not found\n", side)
			continue
		}
		fmt.Printf("%-5s  %s (%s) rssi=%d\n", side, unit.Name, unit.Address, unit.RSSI)
	}
	return nil
}

type PairCmd struct{}

func (c *PairCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	if err := conn.Pairing.PairGlasses(); err != nil {
		return err
	}
	fmt.Println("Paired with both glasses.")
	return nil
}

type VerifyCmd struct{}

func (c *VerifyCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	if err := conn.Pairing.VerifyPairing(); err != nil {
		return err
	}
	fmt.Println("Pairing verified.")
	return nil
}

type UnpairCmd struct{}

func (c *UnpairCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	if err := conn.Pairing.UnpairGlasses(); err != nil {
		return err
	}
	fmt.Println("Unpaired from glasses.")
	return nil
}

// --- Device Commands ---

type SilentCmd struct {
	State string `arg:"" enum:"on,off" help:"Desired state (on or off)"`
}

func (c *SilentCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	if err := conn.Connect(); err != nil {
		return err
	}
	defer conn.Disconnect()

	if err := conn.Device.SetSilentMode(c.State == "on"); err != nil {
		return err
	}
	fmt.Printf("Silent mode %s.\n", c.State)
	return nil
}

type BatteryCmd struct{}

func (c *BatteryCmd) Run(globals *CLI) error {
	conn, err := newConnector(globals)
	if err != nil {
		return err
	}
	if err := conn.Connect(); err != nil {
		return err
	}
	defer conn.Disconnect()

	if err := conn.Device.RefreshBatteryLevels(); err != nil {
		return err
	}
	levels := conn.Device.BatteryLevel()
	for _, side := range glass.Sides() {
		level := levels[side]
		if level == nil {
			fmt.Printf("%-5s  unknown\n", side)
			continue
		}
		fmt.Printf("%-5s  %d%%\n", side, *level)
	}
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(globals *CLI) error {
	config.Verbose = globals.Verbose

	s, err := settings.LoadDefault()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !s.HasAddresses() {
		fmt.Println("No saved pairing. Run: glassctl pair")
		return nil
	}
	for _, side := range glass.Sides() {
		paired := "not paired"
		if s.Paired(side) {
			paired = "paired"
		}
		fmt.Printf("%-5s  %s (%s) %s\n", side, s.Name(side), s.Address(side), paired)
	}
	return nil
}
