// Package database maintains the in memory sequence of blocks that makes up
// the chain along with the block, transaction, and validation rules.
package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Database manages the ordered, append only set of blocks. It always holds
// at least the genesis block.
type Database struct {
	mu     sync.RWMutex
	blocks []Block
}

// New constructs a database holding a freshly minted genesis block.
func New(gen genesis.Genesis) *Database {
	db := Database{
		blocks: []Block{GenesisBlock(gen, Now())},
	}

	return &db
}

// GenesisBlock constructs the first block of a chain. Its previous hash is
// the genesis sentinel, not a computed hash.
func GenesisBlock(gen genesis.Genesis, timestamp float64) Block {
	return NewBlock(1, timestamp, nil, gen.Proof, gen.PreviousHash)
}

// NewBlock constructs a block value. The transactions are copied so the
// caller can't change the block after the fact.
func NewBlock(index uint64, timestamp float64, trans []Tx, proof uint64, previousHash string) Block {
	cpy := make([]Tx, len(trans))
	copy(cpy, trans)

	return Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: cpy,
		Proof:        proof,
		PreviousHash: previousHash,
	}
}

// Now returns the current time as fractional unix seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// =============================================================================

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return copyBlock(db.blocks[len(db.blocks)-1])
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Copy returns a copy of every block in the chain.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		blocks[i] = copyBlock(block)
	}

	return blocks
}

// GetBlock returns the block at the specified 1 based position.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index == 0 || index > uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d does not exist", index)
	}

	return copyBlock(db.blocks[index-1]), nil
}

// Append adds a new block to the end of the chain. The block must carry the
// next index.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if next := uint64(len(db.blocks)) + 1; block.Index != next {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, next)
	}

	db.blocks = append(db.blocks, copyBlock(block))

	return nil
}

// Replace swaps the entire chain for the specified blocks. Validation is the
// caller's responsibility; an empty chain is refused.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("can't replace the chain with no blocks")
	}

	cpy := make([]Block, len(blocks))
	for i, block := range blocks {
		cpy[i] = copyBlock(block)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.blocks = cpy

	return nil
}
