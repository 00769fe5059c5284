package engine

import (
	"github.com/tvossen/corechess/internal/board"
)

// Move ordering scores. Quiet moves score in the range covered by the
// history table; captures and killers sit in a fixed band above it so
// they always sort ahead of plain history scores.
const (
	pvMoveScore   = 20000
	captureBase   = 10000
	killerScore1  = 9000
	killerScore2  = 8000
)

// pieceRank gives each piece type's rank in the MVV-LVA ordering scale.
// This is a separate, coarser scale from the evaluator's own piece
// values: captures only need a relative ordering, not a precise one.
var pieceRank = [6]int{100, 200, 300, 400, 500, 600}

// MoveOrderer tracks the killer and history tables used to order moves
// within a single search.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [6][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] = 0
		}
	}
}

// ScoreMoves assigns an ordering score to every move in the list.
// pvMove, when not board.NoMove, is the move the previous iteration's
// principal variation follows at this ply.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, pvMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, pvMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, pvMove board.Move) int {
	if m == pvMove {
		return pvMoveScore
	}

	if m.IsCapture() {
		attacker := m.Piece()
		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(m.To()).Type()
		}
		return captureBase + pieceRank[victim] + (5 - int(attacker))
	}

	if m == mo.killers[ply][0] {
		return killerScore1
	}
	if m == mo.killers[ply][1] {
		return killerScore2
	}

	return mo.history[m.Piece()][m.To()]
}

// SortMoves sorts moves by score, descending.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move starting at index and swaps
// it into place, allowing lazy selection-sort-as-you-go ordering.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records m as a killer at ply, shifting the previous
// first killer into the second slot.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory adds depth to the history score of a quiet move that
// caused a beta cutoff.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	mo.history[m.Piece()][m.To()] += depth
}
