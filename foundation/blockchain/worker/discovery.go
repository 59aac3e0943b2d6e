package worker

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// discoveryOperations browses the network for other nodes on a timer.
func (w *Worker) discoveryOperations() {
	w.evHandler("worker: discoveryOperations: G started")
	defer w.evHandler("worker: discoveryOperations: G completed")

	ticker := time.NewTicker(w.discoveryInterval)
	defer ticker.Stop()

	w.runDiscoveryOperation()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runDiscoveryOperation()
			}
		case <-w.shut:
			w.evHandler("worker: discoveryOperations: received shut signal")
			return
		}
	}
}

// runDiscoveryOperation adds every newly found node to the known peers and
// signals a consensus operation when something new showed up.
func (w *Worker) runDiscoveryOperation() {
	w.evHandler("worker: runDiscoveryOperation: started")
	defer w.evHandler("worker: runDiscoveryOperation: completed")

	addrs, err := w.browser.Browse(w.ctx)
	if err != nil {
		w.evHandler("worker: runDiscoveryOperation: WARNING: %s", err)
		return
	}

	var added int
	for _, addr := range addrs {
		pr, err := peer.Parse(addr)
		if err != nil {
			w.evHandler("worker: runDiscoveryOperation: address[%s]: WARNING: %s", addr, err)
			continue
		}

		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: runDiscoveryOperation: adding peer-node %s", pr)
			added++
		}
	}

	if added > 0 {
		w.SignalResolve()
	}
}
