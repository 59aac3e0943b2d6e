package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// RetrieveNodeID returns the identifier mining rewards are paid to.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of every block in the chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Copy()
}

// RetrieveBlock returns the block at the specified 1 based index.
func (s *State) RetrieveBlock(index uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.GetBlock(index)
}

// RetrieveMempool returns a copy of the pending transactions in order.
func (s *State) RetrieveMempool() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to other nodes.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	latest := s.db.LatestBlock()
	length := s.db.Length()
	pending := s.mempool.Count()
	s.mu.RUnlock()

	return peer.PeerStatus{
		NodeID:           s.nodeID,
		LatestBlockHash:  latest.Hash(),
		LatestBlockIndex: latest.Index,
		ChainLength:      length,
		PendingTxs:       pending,
		KnownPeers:       s.RetrieveKnownPeers(),
	}
}
