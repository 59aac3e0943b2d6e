package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/ledger/foundation/web"
)

// This holds the set of metrics we will collect.
var metrics = struct {
	gr      *expvar.Int
	req     *expvar.Int
	err     *expvar.Int
	panics  *expvar.Int
	mined   *expvar.Int
	replace *expvar.Int
}{
	gr:      expvar.NewInt("goroutines"),
	req:     expvar.NewInt("requests"),
	err:     expvar.NewInt("errors"),
	panics:  expvar.NewInt("panics"),
	mined:   expvar.NewInt("blocks_mined"),
	replace: expvar.NewInt("chain_replacements"),
}

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and goroutines counter.
			metrics.req.Add(1)
			if metrics.req.Value()%100 == 0 {
				metrics.gr.Set(int64(runtime.NumGoroutine()))
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				metrics.err.Add(1)
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}

// AddBlockMined records a block mined by this node.
func AddBlockMined() {
	metrics.mined.Add(1)
}

// AddChainReplacement records a consensus run that replaced the local chain.
func AddChainReplacement() {
	metrics.replace.Add(1)
}
