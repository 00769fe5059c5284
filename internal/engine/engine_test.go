package engine

import (
	"testing"
	"time"

	"github.com/tvossen/corechess/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 3, MoveTime: 500 * time.Millisecond})
	if move == board.NoMove {
		t.Error("Search returned NoMove for starting position")
	}
	t.Logf("Best move: %s", move.String())
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1) // 1MB

	pos := board.NewPosition()

	// First probe should miss
	_, _, found := pt.Probe(pos.PawnKey)
	if found {
		t.Error("Expected cache miss on first probe")
	}

	// Store and retrieve
	pt.Store(pos.PawnKey, -15, -20)

	mg, eg, found := pt.Probe(pos.PawnKey)
	if !found {
		t.Error("Expected cache hit after store")
	}
	if mg != -15 || eg != -20 {
		t.Errorf("Wrong values: got mg=%d, eg=%d, want -15, -20", mg, eg)
	}

	// Verify PawnKey changes when pawns move
	oldKey := pos.PawnKey
	move := board.NewMove(board.E2, board.E4)
	undo := pos.MakeMove(move)
	if pos.PawnKey == oldKey {
		t.Error("PawnKey should change when pawn moves")
	}

	// Verify PawnKey is restored on unmake
	pos.UnmakeMove(move, undo)
	if pos.PawnKey != oldKey {
		t.Error("PawnKey should be restored on unmake")
	}

	t.Logf("PawnKey: %016x", pos.PawnKey)
}

func TestSearchFindsMateInOne(t *testing.T) {
	// Black king boxed in on g8, white queen delivers mate on g7.
	pos, err := board.ParseFEN("6k1/8/7K/8/8/8/8/6Q1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	eng := NewEngine(16)
	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 5, MoveTime: 2 * time.Second})

	if move.String() != "g1g7" {
		t.Errorf("expected mating move g1g7, got %s", move.String())
	}
}

func TestSearchSoundnessAtDepthOne(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 1, MoveTime: time.Second})

	moves := pos.GenerateLegalMoves()
	bestStatic := -Infinity
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		score := -Evaluate(pos)
		pos.UnmakeMove(m, undo)
		if score > bestStatic {
			bestStatic = score
		}
	}

	undo := pos.MakeMove(move)
	moveScore := -Evaluate(pos)
	pos.UnmakeMove(move, undo)

	if moveScore != bestStatic {
		t.Errorf("depth-1 search picked a move scoring %d, best static move scores %d", moveScore, bestStatic)
	}
}
