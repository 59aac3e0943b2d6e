// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/business/web/response"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return response.Respond(ctx, w, "", h.State.RetrieveStatus(), http.StatusOK)
}

// BlockByIndex returns the block at the specified 1 based index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	indexStr := web.Param(r, "index")

	index, err := strconv.ParseUint(indexStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid index %q: %w", indexStr, err), http.StatusBadRequest)
	}

	block, err := h.State.RetrieveBlock(index)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return response.Respond(ctx, w, "", block, http.StatusOK)
}
