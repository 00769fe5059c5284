package engine

import (
	"time"

	"github.com/tvossen/corechess/internal/board"
)

// SearchInfo reports the progress of one completed iterative-deepening
// iteration, suitable for a UCI "info" line.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // permille of hash table used
}

// SearchLimits bounds a single findBestMove call.
type SearchLimits struct {
	Depth    int           // maximum depth (0 = no limit)
	MoveTime time.Duration // fixed time for this move (0 = no limit)
	Infinite bool          // search until stopped
}

// Engine ties together the searcher, transposition table and time
// manager into the one entry point the UCI layer calls.
type Engine struct {
	searcher *Searcher
	tt       *TranspositionTable

	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine with a transposition table sized at
// ttSizeMB megabytes.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		searcher: NewSearcher(tt),
		tt:       tt,
	}
}

// aspirationWindow is the half-width of the window tried from depth 2
// onward, before falling back to a full re-search on any fail.
const aspirationWindow = 50

// SearchWithLimits runs iterative deepening from depth 1 to the limit,
// using aspiration windows from depth 2 onward, and returns the best
// move found by the last fully completed iteration. If the search is
// stopped before any iteration completes, the root move of the
// interrupted iteration is returned instead.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	e.searcher.Reset()

	startTime := time.Now()
	budget := limits.MoveTime
	if limits.Infinite {
		budget = 0
	}
	e.searcher.SetDeadline(startTime, budget)

	var deadline time.Time
	if budget > 0 {
		deadline = startTime.Add(budget)
	}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		var move board.Move
		var score int

		if depth >= 2 && bestMove != board.NoMove {
			alpha := bestScore - aspirationWindow
			beta := bestScore + aspirationWindow
			move, score = e.searcher.SearchWithBounds(pos, depth, alpha, beta)

			if !e.searcher.IsStopped() && (score <= alpha || score >= beta) {
				move, score = e.searcher.SearchWithBounds(pos, depth, -Infinity, Infinity)
			}
		} else {
			move, score = e.searcher.Search(pos, depth)
		}

		if e.searcher.IsStopped() {
			if bestMove == board.NoMove {
				bestMove = move
			}
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}
	}

	return bestMove
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Nodes returns the number of nodes searched in the last findBestMove call.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// Clear clears the transposition table and move ordering state.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
}

// SetRootHistory sets the game's hash history for repetition detection.
func (e *Engine) SetRootHistory(hashes []uint64) {
	e.searcher.SetRootHistory(hashes)
}

// Perft counts leaf nodes at depth, for move generator verification.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString renders a score the way a UCI "info score" line would:
// mate distance when near ±MateScore, otherwise pawns.cp.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		return "Mate in " + itoa((MateValue-score+1)/2)
	}
	if score < -MateScore+100 {
		return "Mated in " + itoa((MateValue+score+1)/2)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return sign + itoa(score/100) + "." + itoa(score%100)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
