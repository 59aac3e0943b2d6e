// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/business/web/mid"
	"github.com/ardanlabs/ledger/business/web/response"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Mine solves the next block, rewards this node, and adds the block with
// every pending transaction to the chain.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.Mine(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return err
	}

	mid.AddBlockMined()

	return response.Respond(ctx, w, "New Block Forged", block, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "sender", nt.Sender, "recipient", nt.Recipient, "amount", *nt.Amount)

	index, err := h.State.QueueTransaction(nt.Sender, nt.Recipient, *nt.Amount)
	if err != nil {
		if errors.Is(err, database.ErrMalformedTransaction) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	msg := fmt.Sprintf("Transaction will be added to Block %d", index)
	return response.Respond(ctx, w, msg, queued{Index: index}, http.StatusCreated)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return response.Respond(ctx, w, "", h.State.RetrieveMempool(), http.StatusOK)
}

// Chain returns every block in the chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return response.Respond(ctx, w, "", h.State.RetrieveChain(), http.StatusOK)
}

// RegisterNodes adds a list of peer addresses to the known peers.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nodes []string
	if err := web.Decode(r, &nodes); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.CheckVar("nodes", nodes, "required,min=1,dive,required"); err != nil {
		return err
	}

	for _, node := range nodes {
		pr, err := h.State.RegisterPeer(node)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		h.Log.Infow("register node", "traceid", v.TraceID, "host", pr.Host)
	}

	// Let the worker catch up with the new peers in the background.
	if h.State.Worker != nil {
		h.State.Worker.SignalResolve()
	}

	return response.Respond(ctx, w, "New nodes have been added", h.State.RetrieveKnownPeers(), http.StatusCreated)
}

// Resolve asks the known peers for their chains and adopts the longest
// valid one.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.State.ResolveConflicts(ctx)
	if err != nil {
		if errors.Is(err, state.ErrNoPeerChains) {
			return errs.NewTrusted(err, http.StatusBadGateway)
		}
		return err
	}

	msg := "Our chain is authoritative"
	if replaced {
		mid.AddChainReplacement()
		msg = "Our chain was replaced"
	}

	return response.Respond(ctx, w, msg, h.State.RetrieveChain(), http.StatusOK)
}
