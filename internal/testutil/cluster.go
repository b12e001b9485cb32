package testutil

import (
	"github.com/causalmesh/ses/pkg/ses/definition"
	"github.com/causalmesh/ses/pkg/ses/runtime"
	"github.com/causalmesh/ses/pkg/ses/types"
)

// NewTestConfiguration builds a Configuration for n processes on an
// in-memory fabric (no real ports are actually bound by MemTransport,
// but PeerEndpoint values are still populated for completeness and for
// any code path that logs them).
func NewTestConfiguration(n, messagesPerProcess int) *types.Configuration {
	cfg := &types.Configuration{
		NumProcesses:       n,
		MessagesPerProcess: messagesPerProcess,
		MessageRate: types.MessageRate{
			MinPerMinute: 6000,
			MaxPerMinute: 12000,
		},
		Network: types.NetworkConfig{
			BasePort:       5000,
			TimeoutSeconds: 5,
		},
	}
	for i := 0; i < n; i++ {
		cfg.Processes = append(cfg.Processes, types.PeerEndpoint{Host: "mem", Port: 5000 + i})
	}
	cfg.HandshakeRetryInterval = 0
	cfg.DrainInterval = 0
	return cfg
}

// Cluster is N ProcessRuntimes wired together over one in-memory Fabric.
type Cluster struct {
	Runtimes []*ProcessHandle
	Fabric   *Fabric
}

// ProcessHandle pairs a ProcessRuntime with its logger, for tests that
// want to inspect delivered messages or toggle debug logging.
type ProcessHandle struct {
	Runtime *runtime.ProcessRuntime
	Logger  *definition.DefaultLogger
}

// NewCluster builds n ProcessRuntimes sharing one Fabric, each with its
// own DefaultLogger acting as both Logger and EventLogger — the
// teacher's own test helpers (test.CreateCluster) follow the same shape:
// one peer/unity per index, all sharing the process-local test harness.
func NewCluster(cfg *types.Configuration) *Cluster {
	n := cfg.NumProcesses
	fabric := NewFabric(n)
	c := &Cluster{Fabric: fabric}
	for i := 0; i < n; i++ {
		logger := definition.NewDefaultLogger()
		transport := fabric.Transport(i)
		rt := runtime.New(i, cfg, transport, logger, logger)
		c.Runtimes = append(c.Runtimes, &ProcessHandle{Runtime: rt, Logger: logger})
	}
	return c
}
