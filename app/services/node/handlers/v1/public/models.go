package public

// newTx is what a client submits to queue a transaction. Amount is a
// pointer so a zero amount can be told apart from a missing one.
type newTx struct {
	Sender    string   `json:"sender" validate:"required"`
	Recipient string   `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
}

type queued struct {
	Index uint64 `json:"index"`
}
