package worker

import (
	"context"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// miningJob is a request to mine the next block. The result channel is
// buffered so the mining G never blocks on a caller that went away.
type miningJob struct {
	ctx    context.Context
	result chan miningResult
}

type miningResult struct {
	block database.Block
	err   error
}

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case job := <-w.mining:
			if w.isShutdown() {
				job.result <- miningResult{err: ErrShutdown}
				continue
			}
			w.runMiningOperation(job)

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation solves the next block and mints it with everything in
// the mempool. The search stops when either the caller or the worker is
// cancelled.
func (w *Worker) runMiningOperation(job miningJob) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	ctx, cancel := context.WithCancel(job.ctx)
	defer cancel()

	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	switch {
	case err == nil:
		w.evHandler("worker: runMiningOperation: MINING: blk[%d]: hash[%s]", block.Index, block.Hash())
	case ctx.Err() != nil:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}

	job.result <- miningResult{block: block, err: err}
}
