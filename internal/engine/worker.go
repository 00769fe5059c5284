package engine

import (
	"sync/atomic"
	"time"

	"github.com/tvossen/corechess/internal/board"
)

// nodesPerTimeCheck is how often the search polls the clock and the stop
// flag, per step 4 of the negamax recipe.
const nodesPerTimeCheck = 2048

// Worker carries all per-search mutable state: the position being
// searched, move ordering tables, the PV, and the repetition stack.
type Worker struct {
	pos *board.Position

	orderer *MoveOrderer
	tt      *TranspositionTable

	nodes uint64
	pv    PVTable

	// prevPV is a snapshot of the previous iteration's root PV, consulted
	// while generating and ordering moves so the search follows the same
	// line first.
	prevPV []board.Move

	undoStack [MaxPly]board.UndoInfo

	// posHistory holds ancestor hashes: the game history up to the root,
	// plus the hash of every node on the current search path.
	posHistory    []uint64
	rootPosHashes []uint64

	pawnTable *PawnTable

	stopFlag  *atomic.Bool
	startTime time.Time
	budget    time.Duration

	stopped bool
}

// NewWorker creates a new search worker.
func NewWorker(tt *TranspositionTable, pawnTable *PawnTable, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		orderer:   NewMoveOrderer(),
		tt:        tt,
		pawnTable: pawnTable,
		stopFlag:  stopFlag,
	}
}

// Nodes returns the number of nodes searched by this worker.
func (w *Worker) Nodes() uint64 {
	return w.nodes
}

// Reset clears killers, history and node count for a new findBestMove call.
func (w *Worker) Reset() {
	w.nodes = 0
	w.stopped = false
	w.orderer.Clear()
	w.pv = PVTable{}
	w.prevPV = nil
}

// SetRootHistory sets the hash history of the game up to the current
// position, used for repetition detection.
func (w *Worker) SetRootHistory(hashes []uint64) {
	w.rootPosHashes = make([]uint64, len(hashes))
	copy(w.rootPosHashes, hashes)
}

// SetDeadline arms the time budget a running search checks against.
func (w *Worker) SetDeadline(start time.Time, budget time.Duration) {
	w.startTime = start
	w.budget = budget
}

// InitSearch prepares the worker to search a fresh position copy.
func (w *Worker) InitSearch(pos *board.Position) {
	w.pos = pos.Copy()
	w.posHistory = make([]uint64, 0, len(w.rootPosHashes)+MaxPly)
	w.posHistory = append(w.posHistory, w.rootPosHashes...)
}

// SearchDepth runs negamax at the given depth and returns the best move
// found along with its score.
func (w *Worker) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	if w.pv.length[0] > 0 {
		w.prevPV = append([]board.Move(nil), w.pv.moves[0][:w.pv.length[0]]...)
	}

	score := w.negamax(depth, 0, alpha, beta, len(w.prevPV) > 0)

	var bestMove board.Move
	if w.pv.length[0] > 0 {
		bestMove = w.pv.moves[0][0]
	}

	if bestMove == board.NoMove && !w.stopped {
		moves := w.pos.GenerateLegalMoves()
		if moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	return bestMove, score
}

// GetPV returns the principal variation from the last search.
func (w *Worker) GetPV() []board.Move {
	pv := make([]board.Move, w.pv.length[0])
	copy(pv, w.pv.moves[0][:w.pv.length[0]])
	return pv
}

// evaluate returns the static evaluation, scaled toward zero as the
// halfmove clock approaches the 50-move rule.
func (w *Worker) evaluate() int {
	score := EvaluateWithPawnTable(w.pos, w.pawnTable)
	return score * (100 - w.pos.HalfMoveClock) / 100
}

// isRepeated reports whether the current position's hash already
// occurred earlier on the search path or in the game history. A single
// prior occurrence counts, not three.
func (w *Worker) isRepeated() bool {
	h := w.pos.Hash
	for _, prev := range w.posHistory {
		if prev == h {
			return true
		}
	}
	return false
}

// negamax implements the 12-step search recipe.
func (w *Worker) negamax(depth, ply, alpha, beta int, followPV bool) int {
	root := ply == 0

	// 1. Initialize PV length at current ply.
	w.pv.length[ply] = ply

	// 2. Draw by repetition or 50-move rule (non-root only).
	if !root && (w.isRepeated() || w.pos.HalfMoveClock >= 100) {
		return 0
	}

	// 3. Non-PV nodes probe the TT for an early cutoff.
	isPV := beta-alpha > 1
	if !isPV && !root {
		if s := w.tt.Probe(alpha, beta, depth, w.pos.Hash, ply); s != MISS {
			return s
		}
	}

	// 4. Time check.
	w.nodes++
	if w.nodes%nodesPerTimeCheck == 0 {
		if w.stopFlag.Load() {
			w.stopped = true
		} else if w.budget > 0 && time.Since(w.startTime) > w.budget {
			w.stopped = true
		}
	}
	if w.stopped {
		return 0
	}

	// 5. Leaf: drop to quiescence.
	if depth == 0 {
		return w.quiescence(ply, alpha, beta)
	}

	// 6. Ply cap.
	if ply > MaxPly-1 {
		return w.evaluate()
	}

	// 7. Check extension.
	inCheck := w.pos.InCheck()
	if inCheck {
		depth++
	}

	// 8. Null-move pruning.
	if depth >= 3 && !inCheck && !root {
		nullUndo := w.pos.MakeNullMove()
		score := -w.negamax(depth-3, ply+1, -beta, -beta+1, false)
		w.pos.UnmakeNullMove(nullUndo)
		if w.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	// 9. Generate and order moves.
	moves := w.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		// 11. No legal moves.
		if inCheck {
			return -MateValue + ply
		}
		return 0
	}

	var pvMove board.Move
	if followPV && ply < len(w.prevPV) {
		pvMove = w.prevPV[ply]
	}
	scores := w.orderer.ScoreMoves(w.pos, moves, ply, pvMove)
	SortMoves(moves, scores)

	flag := TTAlpha
	movesSearched := 0

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)

		// 10. Push this node's hash, then make the move.
		w.posHistory = append(w.posHistory, w.pos.Hash)
		w.undoStack[ply] = w.pos.MakeMove(move)
		if !w.undoStack[ply].Valid {
			w.posHistory = w.posHistory[:len(w.posHistory)-1]
			continue
		}
		movesSearched++

		quiet := move.IsQuiet()
		childFollowPV := followPV && move == pvMove

		var score int
		if movesSearched == 1 {
			score = -w.negamax(depth-1, ply+1, -beta, -alpha, childFollowPV)
		} else {
			if movesSearched >= 4 && depth >= 3 && !inCheck && quiet {
				score = -w.negamax(depth-2, ply+1, -alpha-1, -alpha, false)
			} else {
				score = alpha + 1
			}

			if score > alpha {
				score = -w.negamax(depth-1, ply+1, -alpha-1, -alpha, false)
				if score > alpha && score < beta {
					score = -w.negamax(depth-1, ply+1, -beta, -alpha, childFollowPV)
				}
			}
		}

		w.pos.UnmakeMove(move, w.undoStack[ply])
		w.posHistory = w.posHistory[:len(w.posHistory)-1]

		if w.stopped {
			return 0
		}

		if score > alpha {
			flag = TTExact
			if quiet {
				w.orderer.UpdateHistory(move, depth)
			}
			alpha = score

			w.pv.moves[ply][ply] = move
			for j := ply + 1; j < w.pv.length[ply+1]; j++ {
				w.pv.moves[ply][j] = w.pv.moves[ply+1][j]
			}
			w.pv.length[ply] = w.pv.length[ply+1]
		}

		if score >= beta {
			w.tt.Store(beta, depth, TTBeta, w.pos.Hash, ply)
			if quiet {
				w.orderer.UpdateKillers(move, ply)
			}
			return beta
		}
	}

	// 12. Store and return.
	w.tt.Store(alpha, depth, flag, w.pos.Hash, ply)
	return alpha
}

// quiescence searches captures only, to the point of a quiet position.
func (w *Worker) quiescence(ply, alpha, beta int) int {
	w.nodes++
	if w.stopFlag.Load() {
		w.stopped = true
	}
	if w.stopped || ply >= MaxPly {
		return w.evaluate()
	}

	standPat := w.evaluate()
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := w.pos.GenerateCaptures()
	scores := w.orderer.ScoreMoves(w.pos, moves, ply, board.NoMove)
	SortMoves(moves, scores)

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)

		undo := w.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}

		score := -w.quiescence(ply+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if w.stopped {
			return 0
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
