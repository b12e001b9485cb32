// Command ses-process is the worker binary spawned by the external
// launcher named in spec.md §1/§6: one process per peer, the peer index
// given as its sole positional argument. The launcher itself (process
// supervision, log-file layout, statistics printout) is out of scope per
// spec.md §1 and is not implemented here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/causalmesh/ses/internal/obslog"
	"github.com/causalmesh/ses/pkg/ses/runtime"
	"github.com/causalmesh/ses/pkg/ses/tcp"
	"github.com/causalmesh/ses/pkg/ses/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/config.json", "path to the Configuration JSON file")
	logDir := flag.String("log-dir", "logs", "directory for the per-process log file")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ses-process [flags] <process-id>")
		return 1
	}
	self, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid process id %q: %v\n", flag.Arg(0), err)
		return 1
	}

	cfg, err := types.LoadConfiguration(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if self < 0 || self >= cfg.NumProcesses {
		fmt.Fprintf(os.Stderr, "process id %d out of range [0,%d)\n", self, cfg.NumProcesses)
		return 1
	}

	logger, err := obslog.New(self, *logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		return 1
	}

	transport, err := tcp.NewTransport(self, cfg.Processes, cfg.Network.Timeout(), logger)
	if err != nil {
		logger.Errorf("failed to bind transport: %v", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := runtime.New(self, cfg, transport, logger, logger)
	if err := rt.Run(ctx); err != nil {
		logger.Errorf("process %d exited with error: %v", self, err)
		return 1
	}

	logger.Infof("process %d drained cleanly", self)
	return 0
}
