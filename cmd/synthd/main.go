// Command synthd is a thin CLI wrapper around the graph runtime: it builds
// an Engine, optionally loads a patch file into it, opens the default audio
// device, and runs until interrupted.
//
// Grounded on linuxmatters-jivetalking's cmd/jivetalking/main.go kong-based
// CLI structure (flat options struct, kong.Parse, exit-on-usage-error)
// replacing the teacher's hand-rolled os.Args switch in its own main.go.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/ardentmodular/synthcore"
)

// CLI defines synthd's command-line interface: a patch to load and the
// device parameters the engine is constructed with.
type CLI struct {
	Patch      string `short:"p" help:"Patch file to load at startup." type:"existingfile" optional:""`
	SampleRate int    `help:"Engine sample rate in Hz." default:"44100"`
	BlockSize  int    `help:"Engine block size in frames." default:"512"`
	Debug      bool   `short:"d" help:"Enable debug logging."`
	ListTypes  bool   `help:"Print the registered node catalog and exit."`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("synthd"),
		kong.Description("Real-time modular-synthesis graph runtime."),
		kong.UsageOnError(),
	)

	logger := log.New(os.Stderr)
	if cli.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	if cli.ListTypes {
		types := synthcore.KnownNodeTypes()
		sort.Strings(types)
		for _, t := range types {
			fmt.Println(t)
		}
		return
	}

	if err := run(cli, logger); err != nil {
		logger.Error("synthd exiting", "err", err)
		os.Exit(1)
	}
}

func run(cli *CLI, logger *log.Logger) error {
	engine := synthcore.NewEngine(float64(cli.SampleRate), cli.BlockSize, logger)

	if cli.Patch != "" {
		result, err := synthcore.LoadPatch(engine.Graph(), cli.Patch)
		if err != nil {
			return fmt.Errorf("load patch: %w", err)
		}
		for name, nodeErr := range result.NodeErrors {
			logger.Warn("patch node failed to load", "node", name, "err", nodeErr)
		}
		for _, connErr := range result.ConnectionErrors {
			logger.Warn("patch connection failed to load", "err", connErr)
		}
	}

	device, err := synthcore.NewOtoDevice(cli.SampleRate)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	defer device.Close()

	device.Attach(engine)
	if err := engine.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	device.Start()
	logger.Info("synthd running", "sample_rate", cli.SampleRate, "block_size", cli.BlockSize)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			device.Stop()
			return engine.Stop()
		case <-ticker.C:
			for _, cmdErr := range engine.PendingErrors() {
				logger.Warn("command failed", "err", cmdErr)
			}
		}
	}
}
