package board

import "fmt"

// Move encodes a chess move in 26 bits, packed as:
//
//	bits 0-5:   from square (0-63)
//	bits 6-11:  to square (0-63)
//	bits 12-14: piece type of the mover
//	bits 15-16: side of the mover
//	bits 17-19: promotion piece type (meaningless unless PromoSide() != NoColor)
//	bits 20-21: promotion side, locally encoded 0=none, 1=White, 2=Black
//	bits 22-24: flag (none, double push, castle, en passant)
//	bit  25:    capture
//
// A move is a promotion iff its promotion-side field is not "none" — there
// is no dedicated promotion flag. Equality is bitwise on the packed word.
type Move uint32

const (
	moveFromShift  = 0
	moveToShift    = 6
	movePieceShift = 12
	moveSideShift  = 15
	movePromoPShift = 17
	movePromoSShift = 20
	moveFlagShift  = 22
	moveCaptureBit = 25

	mask6 = 0x3F
	mask3 = 0x7
	mask2 = 0x3
)

// Flag identifies the subset of moves that need special handling in
// make/unmake beyond "move a piece from here to there".
type Flag uint8

const (
	FlagNone Flag = iota
	FlagDoublePush
	FlagCastle
	FlagEnPassant
)

// NoMove represents an invalid or null move. Its packed bits decode to
// from=to=A8, which is never a legal move, so the zero value is safe.
const NoMove Move = 0

func encodePromoSide(c Color) uint32 {
	switch c {
	case White:
		return 1
	case Black:
		return 2
	default:
		return 0
	}
}

func decodePromoSide(v uint32) Color {
	switch v {
	case 1:
		return White
	case 2:
		return Black
	default:
		return NoColor
	}
}

func packMove(from, to Square, piece PieceType, side Color, promo PieceType, promoSide Color, flag Flag, capture bool) Move {
	m := Move(from&mask6) |
		Move(to&mask6)<<moveToShift |
		Move(piece&mask3)<<movePieceShift |
		Move(side&mask2)<<moveSideShift |
		Move(promo&mask3)<<movePromoPShift |
		Move(encodePromoSide(promoSide)&mask2)<<movePromoSShift |
		Move(flag&mask3)<<moveFlagShift
	if capture {
		m |= 1 << moveCaptureBit
	}
	return m
}

// NewMove creates a normal (non-promotion, non-special) move.
func NewMove(from, to Square) Move {
	return packMove(from, to, Pawn, White, Pawn, NoColor, FlagNone, false)
}

// NewMoveFull creates a move with explicit piece/side/capture metadata,
// as produced by the move generator.
func NewMoveFull(from, to Square, piece PieceType, side Color, capture bool) Move {
	return packMove(from, to, piece, side, Pawn, NoColor, FlagNone, capture)
}

// NewDoublePush creates a pawn double-push move.
func NewDoublePush(from, to Square, side Color) Move {
	return packMove(from, to, Pawn, side, Pawn, NoColor, FlagDoublePush, false)
}

// NewPromotion creates a promotion move (optionally also a capture).
func NewPromotion(from, to Square, side Color, promo PieceType, capture bool) Move {
	return packMove(from, to, Pawn, side, promo, side, FlagNone, capture)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square, side Color) Move {
	return packMove(from, to, Pawn, side, Pawn, NoColor, FlagEnPassant, true)
}

// NewCastling creates a castling move (the king's movement; make() moves
// the rook as a side effect).
func NewCastling(from, to Square, side Color) Move {
	return packMove(from, to, King, side, Pawn, NoColor, FlagCastle, false)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & mask6)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> moveToShift) & mask6)
}

// Piece returns the piece type of the mover.
func (m Move) Piece() PieceType {
	return PieceType((m >> movePieceShift) & mask3)
}

// Side returns the side of the mover.
func (m Move) Side() Color {
	return Color((m >> moveSideShift) & mask2)
}

// Flag returns the move's flag.
func (m Move) Flag() Flag {
	return Flag((m >> moveFlagShift) & mask3)
}

// Promotion returns the promotion piece type. Only meaningful if
// IsPromotion() is true.
func (m Move) Promotion() PieceType {
	return PieceType((m >> movePromoPShift) & mask3)
}

// PromoSide returns the promotion side, or NoColor if this is not a
// promotion.
func (m Move) PromoSide() Color {
	return decodePromoSide(uint32((m >> movePromoSShift) & mask2))
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.PromoSide() != NoColor
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastle
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsDoublePush returns true if this is a pawn double push.
func (m Move) IsDoublePush() bool {
	return m.Flag() == FlagDoublePush
}

// IsCapture returns true if this move captures a piece (including en
// passant).
func (m Move) IsCapture() bool {
	return m&(1<<moveCaptureBit) != 0
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := [6]byte{0, 'n', 'b', 'r', 'q', 0}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a UCI format move string against the given position,
// filling in the piece/side/capture/flag metadata by inspecting pos.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	side := piece.Color()
	capture := !pos.IsEmpty(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, side, promo, capture), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to, side), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to, side), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePush(from, to, side), nil
	}

	return NewMoveFull(from, to, pt, side, capture), nil
}

// MaxMoves is the proven upper bound on legal moves in any chess position.
const MaxMoves = 218

// MoveList is a fixed-capacity list of moves, filled push-only during
// generation to avoid allocation on the hot path.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores the information needed to restore a Position after an
// illegal or simply unwound make(). The reference implementation copies
// the whole position rather than journaling individual field changes.
type UndoInfo struct {
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool // true if the move was legal and applied
}
