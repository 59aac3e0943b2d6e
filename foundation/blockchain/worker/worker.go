// Package worker implements mining, consensus, and peer discovery for the
// blockchain in the background.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// ErrShutdown is returned to callers asking for work after the worker has
// been shut down.
var ErrShutdown = errors.New("worker is shut down")

// defaultDiscoveryInterval represents the interval of browsing the local
// network for new peer nodes.
const defaultDiscoveryInterval = time.Minute

// Browser finds the addresses of other nodes on the network.
type Browser interface {
	Browse(ctx context.Context) ([]string, error)
}

// Config represents the settings for the background processing.
type Config struct {
	State             *state.State
	ResolveInterval   time.Duration
	DiscoveryInterval time.Duration
	Browser           Browser
	EvHandler         state.EventHandler
}

// =============================================================================

// Worker manages the POW and consensus workflows for the blockchain.
type Worker struct {
	state             *state.State
	wg                sync.WaitGroup
	ctx               context.Context
	cancel            context.CancelFunc
	shut              chan struct{}
	mining            chan miningJob
	startResolve      chan bool
	resolveInterval   time.Duration
	discoveryInterval time.Duration
	browser           Browser
	evHandler         state.EventHandler
	shutOnce          sync.Once
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(cfg Config) *Worker {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	discoveryInterval := cfg.DiscoveryInterval
	if discoveryInterval <= 0 {
		discoveryInterval = defaultDiscoveryInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:             cfg.State,
		ctx:               ctx,
		cancel:            cancel,
		shut:              make(chan struct{}),
		mining:            make(chan miningJob),
		startResolve:      make(chan bool, 1),
		resolveInterval:   cfg.ResolveInterval,
		discoveryInterval: discoveryInterval,
		browser:           cfg.Browser,
		evHandler:         ev,
	}

	// Register this worker with the state package.
	cfg.State.Worker = &w

	// Update this node before starting any support G's.
	w.runResolveOperation()

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.resolveOperations,
	}
	if w.browser != nil {
		operations = append(operations, w.discoveryOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Calling it more than
// once is safe.
func (w *Worker) Shutdown() {
	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: started")
		defer w.evHandler("worker: shutdown: completed")

		w.evHandler("worker: shutdown: cancel mining and consensus")
		w.cancel()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
		w.wg.Wait()
	})
}

// Mine hands a mining job to the mining G and waits for the block. Jobs are
// processed one at a time in the order they arrive.
func (w *Worker) Mine(ctx context.Context) (database.Block, error) {
	job := miningJob{
		ctx:    ctx,
		result: make(chan miningResult, 1),
	}

	select {
	case w.mining <- job:
		w.evHandler("worker: Mine: mining job accepted")
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	case <-w.shut:
		return database.Block{}, ErrShutdown
	}

	res := <-job.result
	return res.block, res.err
}

// SignalResolve starts a consensus operation. If there is already a signal
// pending in the channel, just return since a consensus operation will start.
func (w *Worker) SignalResolve() {
	select {
	case w.startResolve <- true:
		w.evHandler("worker: SignalResolve: consensus signaled")
	default:
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
