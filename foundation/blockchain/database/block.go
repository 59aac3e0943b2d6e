package database

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// ErrChainInvalid is returned when a sequence of blocks breaks the hash
// links or the proof of work rules.
var ErrChainInvalid = errors.New("chain is invalid")

// ZeroHash is returned by Hash when a block can't be encoded. No real block
// links to it.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Block represents a group of transactions batched together. The field order
// here is the canonical order used for hashing and for exchange with peers.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain starting at 1.
	Timestamp    float64 `json:"timestamp"`     // Unix seconds when the block was minted.
	Transactions []Tx    `json:"transactions"`  // Transactions in the order they were queued.
	Proof        uint64  `json:"proof"`         // Solves the puzzle against the previous block's proof.
	PreviousHash string  `json:"previous_hash"` // Hash of the previous block or the genesis sentinel.
}

// Hash returns the hex encoded sha256 of the block's canonical JSON form.
// A block without transactions is encoded with an empty array so a block
// hashes the same before and after a round trip through a peer.
func (b Block) Hash() string {
	data, err := b.canonical()
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ValidateNext checks the block is allowed to follow the previous block. Only
// the hash link and the proof are checked. Indexes and timestamps are taken
// as given.
func (b Block) ValidateNext(prev Block) error {
	if hash := prev.Hash(); b.PreviousHash != hash {
		return fmt.Errorf("block %d: previous hash doesn't match, got %s, exp %s", b.Index, b.PreviousHash, hash)
	}

	if !pow.ValidProof(prev.Proof, b.Proof) {
		return fmt.Errorf("block %d: proof %d does not solve previous proof %d", b.Index, b.Proof, prev.Proof)
	}

	return nil
}

// canonical produces the exact bytes that are hashed.
func (b Block) canonical() ([]byte, error) {
	if b.Transactions == nil {
		b.Transactions = []Tx{}
	}

	return json.Marshal(b)
}

// copyBlock returns a block whose transaction slice is not shared.
func copyBlock(b Block) Block {
	trans := make([]Tx, len(b.Transactions))
	copy(trans, b.Transactions)
	b.Transactions = trans

	return b
}

// =============================================================================

// ValidateChain walks the blocks from the first to the last and checks each
// block against the one before it. The first violation is returned. Chains
// of zero or one block have nothing to compare and are valid.
func ValidateChain(blocks []Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	if len(blocks) < 2 {
		return nil
	}

	prev := blocks[0]
	for _, block := range blocks[1:] {
		evHandler("database: ValidateChain: validate: blk[%d]: check: link and proof", block.Index)

		if err := block.ValidateNext(prev); err != nil {
			evHandler("database: ValidateChain: blk[%d]: INVALID: %s", block.Index, err)
			return fmt.Errorf("%w: %w", ErrChainInvalid, err)
		}

		prev = block
	}

	return nil
}

// IsValid reports whether the blocks form a valid chain.
func IsValid(blocks []Block) bool {
	return ValidateChain(blocks, nil) == nil
}
