// Package state is the core API for the blockchain and implements all the
// business rules and processing. A State value is the ledger: it owns the
// chain and the pool of pending transactions and is the only thing allowed
// to change either of them.
package state

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// Default network settings used when the configuration leaves them out.
const (
	defaultFetchTimeout = 10 * time.Second
	defaultFetchRetries = 3
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of minting and replacing blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and consensus in the background.
type Worker interface {
	Shutdown()
	Mine(ctx context.Context) (database.Block, error)
	SignalResolve()
}

// Fetcher retrieves the full chain held by a peer. It is the only way the
// state reaches out to other nodes.
type Fetcher func(ctx context.Context, pr peer.Peer) ([]database.Block, error)

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID       string
	Host         string
	Genesis      genesis.Genesis
	KnownPeers   *peer.PeerSet
	Fetcher      Fetcher
	FetchTimeout time.Duration
	FetchRetries uint64
	EvHandler    EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	nodeID    string
	host      string
	evHandler EventHandler

	genesis    genesis.Genesis
	knownPeers *peer.PeerSet
	db         *database.Database
	mempool    *mempool.Mempool

	fetcher      Fetcher
	client       *http.Client
	fetchRetries uint64

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	fetchRetries := cfg.FetchRetries
	if fetchRetries == 0 {
		fetchRetries = defaultFetchRetries
	}

	// The chain always starts with a fresh genesis block. Nothing is
	// persisted, a restarted node catches up through consensus.
	db := database.New(cfg.Genesis)

	state := State{
		nodeID:    cfg.NodeID,
		host:      cfg.Host,
		evHandler: ev,

		genesis:    cfg.Genesis,
		knownPeers: knownPeers,
		db:         db,
		mempool:    mempool.New(),

		client:       &http.Client{Timeout: fetchTimeout},
		fetchRetries: fetchRetries,
	}

	state.fetcher = cfg.Fetcher
	if state.fetcher == nil {
		state.fetcher = state.NetRequestPeerChain
	}

	ev("state: New: genesis: blk[%d]: hash[%s]", db.LatestBlock().Index, db.LatestBlock().Hash())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
