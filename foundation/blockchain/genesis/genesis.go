// Package genesis maintains the bootstrap values every chain starts from.
package genesis

import "time"

// Genesis represents the values used to construct the first block of the
// chain and the reward paid for every block mined afterwards.
type Genesis struct {
	Date         time.Time `json:"date"`
	Proof        uint64    `json:"proof"`         // Proof of the first block. Every chain must agree on it.
	PreviousHash string    `json:"previous_hash"` // Sentinel link for the first block. It is not a real hash.
	MiningReward float64   `json:"mining_reward"` // Amount credited to the miner for each block.
	RewardSender string    `json:"reward_sender"` // Sender recorded on the reward transaction.
}

// Default returns the genesis values peers expect. Changing the proof or
// previous hash makes this node's chain invalid for every other node.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2017, time.September, 22, 5, 12, 5, 0, time.UTC),
		Proof:        1,
		PreviousHash: "1",
		MiningReward: 1,
		RewardSender: "0",
	}
}

// WithMiningReward returns a copy of the genesis with a different reward.
// Negative rewards are ignored.
func (g Genesis) WithMiningReward(reward float64) Genesis {
	if reward >= 0 {
		g.MiningReward = reward
	}
	return g
}
