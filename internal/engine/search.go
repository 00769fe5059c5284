package engine

import (
	"sync/atomic"
	"time"

	"github.com/tvossen/corechess/internal/board"
)

// Search constants.
const (
	Infinity  = 500000
	MateValue = 49000
	MateScore = 48000
	MaxPly    = 128
)

// PVTable stores the principal variation as a triangular array.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher drives a single-threaded negamax search.
type Searcher struct {
	worker   *Worker
	stopFlag atomic.Bool
}

// NewSearcher creates a new searcher around the given transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	s := &Searcher{}
	s.worker = NewWorker(tt, NewPawnTable(1), &s.stopFlag)
	return s
}

// Stop signals the search to stop at the next poll.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset clears killers, history and node count ahead of a new findBestMove call.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.worker.Reset()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.worker.Nodes()
}

// Search performs a full-window search at the given depth.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	return s.SearchWithBounds(pos, depth, -Infinity, Infinity)
}

// SetRootHistory sets the position hash history for repetition detection.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.worker.SetRootHistory(hashes)
}

// SetDeadline arms the time budget the search polls against. A zero
// budget means unbounded.
func (s *Searcher) SetDeadline(start time.Time, budget time.Duration) {
	s.worker.SetDeadline(start, budget)
}

// SearchWithBounds performs a search with the given aspiration window.
func (s *Searcher) SearchWithBounds(pos *board.Position, depth, alpha, beta int) (board.Move, int) {
	s.worker.InitSearch(pos)
	return s.worker.SearchDepth(depth, alpha, beta)
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	return s.worker.GetPV()
}

// ClearOrderer clears the move orderer state.
func (s *Searcher) ClearOrderer() {
	s.worker.orderer.Clear()
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
