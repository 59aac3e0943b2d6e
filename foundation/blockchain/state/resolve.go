package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// ErrNoPeerChains is returned when peers were asked for their chain and
// none of them answered.
var ErrNoPeerChains = errors.New("no peer chains retrieved")

// ResolveConflicts asks every known peer for its chain and replaces the
// local chain with the longest valid one. A peer that cannot be reached or
// answers with garbage is skipped. It returns true if the chain was replaced.
func (s *State) ResolveConflicts(ctx context.Context) (bool, error) {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	peers := s.RetrieveKnownPeers()
	if len(peers) == 0 {
		return false, nil
	}

	type result struct {
		blocks []database.Block
		err    error
	}
	results := make([]result, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func(i int, pr peer.Peer) {
			defer wg.Done()

			blocks, err := s.fetcher(ctx, pr)
			results[i] = result{blocks: blocks, err: err}
		}(i, pr)
	}

	wg.Wait()

	// Candidates keep the order of the peer list so the same set of
	// answers always produces the same winner.
	var candidates [][]database.Block
	var errs []error
	for i, res := range results {
		if res.err != nil {
			s.evHandler("state: ResolveConflicts: peer[%s]: ERROR: %s", peers[i], res.err)
			errs = append(errs, fmt.Errorf("peer %s: %w", peers[i], res.err))
			continue
		}

		s.evHandler("state: ResolveConflicts: peer[%s]: blocks[%d]", peers[i], len(res.blocks))
		candidates = append(candidates, res.blocks)
	}

	if len(candidates) == 0 {
		return false, fmt.Errorf("%w: %w", ErrNoPeerChains, errors.Join(errs...))
	}

	return s.Resolve(candidates), nil
}

// Resolve replaces the local chain with the first candidate that is longer
// than every chain seen before it and passes validation. A candidate of the
// same length as the best so far never wins. It returns true if the chain
// was replaced.
func (s *State) Resolve(candidates [][]database.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxLength := s.db.Length()

	var best []database.Block
	for i, blocks := range candidates {
		if len(blocks) <= maxLength {
			continue
		}

		if err := database.ValidateChain(blocks, s.evHandler); err != nil {
			s.evHandler("state: Resolve: candidate[%d]: blocks[%d]: rejected: %s", i, len(blocks), err)
			continue
		}

		maxLength = len(blocks)
		best = blocks
	}

	if best == nil {
		s.evHandler("state: Resolve: local chain is authoritative: blocks[%d]", maxLength)
		return false
	}

	if err := s.db.Replace(best); err != nil {
		s.evHandler("state: Resolve: replace: ERROR: %s", err)
		return false
	}

	latest := s.db.LatestBlock()
	s.evHandler("state: Resolve: chain replaced: blocks[%d]: latest[%s]", maxLength, latest.Hash())
	s.blockEvent(latest)

	return true
}
