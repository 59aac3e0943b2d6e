package state

import "github.com/ardanlabs/ledger/foundation/blockchain/database"

// QueueTransaction validates the shape of a transaction and adds it to the
// mempool. The index of the block the transaction is expected to land in is
// returned. That index is informational only, a consensus replacement can
// change it.
func (s *State) QueueTransaction(sender string, recipient string, amount float64) (uint64, error) {
	tx, err := database.NewTx(sender, recipient, amount)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.mempool.Add(tx)
	s.evHandler("state: QueueTransaction: tx[%s]: pending[%d]", tx, n)

	return s.db.LatestBlock().Index + 1, nil
}
