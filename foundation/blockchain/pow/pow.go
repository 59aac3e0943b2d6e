// Package pow implements the proof of work puzzle used to admit new blocks
// into the chain. A proof is valid for a previous proof when the sha256 of
// both numbers written back to back as decimal text starts with a fixed
// number of hex zeros.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Difficulty is the number of leading hex zeros the digest must carry. Four
// hex characters is sixteen bits. The value is fixed and never adjusted.
const Difficulty = 4

// target is the prefix every solved digest must start with.
const target = "0000"

// reportEvery is how often SolveContext reports its progress.
const reportEvery = 1 << 20

// cancelEvery is how often SolveContext checks for cancellation.
const cancelEvery = 1 << 12

// sanityBound is the attempt count after which a still running search is
// reported as suspicious. With a sixteen bit target a solution is expected
// within ~65k attempts, so reaching this bound means something is wrong with
// the hash function or the input, not bad luck.
const sanityBound = 1 << 32

// =============================================================================

// Digest returns the hex encoded sha256 of the two proofs concatenated as
// decimal text with no separator.
func Digest(lastProof uint64, proof uint64) string {
	buf := make([]byte, 0, 40)
	buf = strconv.AppendUint(buf, lastProof, 10)
	buf = strconv.AppendUint(buf, proof, 10)

	hash := sha256.Sum256(buf)
	return hex.EncodeToString(hash[:])
}

// ValidProof reports whether proof solves the puzzle for lastProof.
func ValidProof(lastProof uint64, proof uint64) bool {
	return isHashSolved(Digest(lastProof, proof))
}

// Solve returns the smallest proof that solves the puzzle for lastProof. It
// searches from zero upward and blocks until a solution is found.
func Solve(lastProof uint64) uint64 {
	var proof uint64
	for !ValidProof(lastProof, proof) {
		proof++
	}

	return proof
}

// SolveContext performs the same search as Solve but can be cancelled. The
// event handler receives progress reports and a diagnostic if the search
// runs past the sanity bound. The diagnostic does not stop the search.
func SolveContext(ctx context.Context, lastProof uint64, ev func(v string, args ...any)) (uint64, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("pow: SolveContext: started: lastProof[%d]", lastProof)

	var proof uint64
	for {
		if proof%cancelEvery == 0 && ctx.Err() != nil {
			ev("pow: SolveContext: CANCELLED: attempts[%d]", proof)
			return 0, ctx.Err()
		}

		if proof%reportEvery == 0 && proof > 0 {
			ev("pow: SolveContext: attempts[%d]", proof)
		}

		if proof == sanityBound {
			ev("pow: SolveContext: WARNING: no solution after %d attempts for lastProof[%d]", proof, lastProof)
		}

		if ValidProof(lastProof, proof) {
			ev("pow: SolveContext: SOLVED: lastProof[%d]: proof[%d]", lastProof, proof)
			return proof, nil
		}

		proof++
	}
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with the POW rules.
func isHashSolved(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}

	return hash[:Difficulty] == target
}
