package worker

import "time"

// resolveOperations handles consensus with the known peers, on a timer when
// an interval is configured and whenever it is signaled.
func (w *Worker) resolveOperations() {
	w.evHandler("worker: resolveOperations: G started")
	defer w.evHandler("worker: resolveOperations: G completed")

	var tick <-chan time.Time
	if w.resolveInterval > 0 {
		ticker := time.NewTicker(w.resolveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-w.startResolve:
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-tick:
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-w.shut:
			w.evHandler("worker: resolveOperations: received shut signal")
			return
		}
	}
}

// runResolveOperation asks the known peers for their chains and adopts the
// longest valid one.
func (w *Worker) runResolveOperation() {
	w.evHandler("worker: runResolveOperation: started")
	defer w.evHandler("worker: runResolveOperation: completed")

	replaced, err := w.state.ResolveConflicts(w.ctx)
	if err != nil {
		w.evHandler("worker: runResolveOperation: WARNING: %s", err)
		return
	}

	w.evHandler("worker: runResolveOperation: replaced[%t]", replaced)
}
