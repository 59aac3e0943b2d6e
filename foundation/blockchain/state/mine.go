package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// Mine solves the proof of work for the next block and mints it. When a
// worker is registered the search runs on the worker's mining G and this
// call waits for the result.
func (s *State) Mine(ctx context.Context) (database.Block, error) {
	if s.Worker != nil {
		return s.Worker.Mine(ctx)
	}

	return s.MineNewBlock(ctx)
}

// MineNewBlock solves the puzzle against the latest block, rewards this node
// and mints the block with everything in the mempool. If the chain moved
// while the puzzle was being solved the work is thrown away and the search
// starts again against the new latest block.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	for {
		latest := s.RetrieveLatestBlock()

		s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: proof[%d]", latest.Index, latest.Proof)

		proof, err := pow.SolveContext(ctx, latest.Proof, s.evHandler)
		if err != nil {
			return database.Block{}, err
		}

		block, minted, err := s.mintIfLatest(latest, proof)
		if err != nil {
			return database.Block{}, err
		}

		if !minted {
			s.evHandler("state: MineNewBlock: MINING: chain changed while solving: retry")
			continue
		}

		return block, nil
	}
}

// MintBlock appends a new block holding every pending transaction. The
// previous hash is the hash of the latest block unless one is provided.
func (s *State) MintBlock(proof uint64, previousHash string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mintBlock(proof, previousHash)
}

// =============================================================================

// mintIfLatest mints the block only if the latest block is still the one
// the proof was solved against. The mining reward is queued under the same
// lock so it can never end up in some other block.
func (s *State) mintIfLatest(solvedFor database.Block, proof uint64) (database.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.LatestBlock().Hash() != solvedFor.Hash() {
		return database.Block{}, false, nil
	}

	reward, err := database.NewTx(s.genesis.RewardSender, s.nodeID, s.genesis.MiningReward)
	if err != nil {
		return database.Block{}, false, fmt.Errorf("mining reward: %w", err)
	}
	s.mempool.Add(reward)

	block, err := s.mintBlock(proof, "")
	if err != nil {
		return database.Block{}, false, err
	}

	return block, true, nil
}

// mintBlock does the work of MintBlock. The caller must hold the lock.
func (s *State) mintBlock(proof uint64, previousHash string) (database.Block, error) {
	latest := s.db.LatestBlock()

	if previousHash == "" {
		previousHash = latest.Hash()
	}

	// Keep timestamps from going backwards when the wall clock does.
	timestamp := database.Now()
	if timestamp < latest.Timestamp {
		timestamp = latest.Timestamp
	}

	trans := s.mempool.Drain()

	index := uint64(s.db.Length()) + 1
	block := database.NewBlock(index, timestamp, trans, proof, previousHash)

	if err := s.db.Append(block); err != nil {
		for _, tx := range trans {
			s.mempool.Add(tx)
		}
		return database.Block{}, err
	}

	s.evHandler("state: mintBlock: blk[%d]: hash[%s]: trans[%d]", block.Index, block.Hash(), len(block.Transactions))
	s.blockEvent(block)

	return block, nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}
