package database

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedTransaction is returned when a transaction is constructed with
// fields that are missing or out of range.
var ErrMalformedTransaction = errors.New("malformed transaction")

// =============================================================================

// Tx is the transactional information between two parties. A Tx is a value
// and is never changed after it is constructed.
type Tx struct {
	Sender    string  `json:"sender"`    // Identifier of the party sending the amount.
	Recipient string  `json:"recipient"` // Identifier of the party receiving the amount.
	Amount    float64 `json:"amount"`    // Non-negative quantity being moved.
}

// NewTx constructs a new transaction. Only the shape of the values is checked,
// there is no notion of balances or signatures.
func NewTx(sender string, recipient string, amount float64) (Tx, error) {
	if sender == "" {
		return Tx{}, fmt.Errorf("%w: sender is required", ErrMalformedTransaction)
	}

	if recipient == "" {
		return Tx{}, fmt.Errorf("%w: recipient is required", ErrMalformedTransaction)
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Tx{}, fmt.Errorf("%w: amount must be a finite number", ErrMalformedTransaction)
	}

	if amount < 0 {
		return Tx{}, fmt.Errorf("%w: amount must not be negative, got %v", ErrMalformedTransaction, amount)
	}

	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	return tx, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Recipient, tx.Amount)
}
