package rules

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/Alpinnnn/yupichess/internal/apperror"
)

const (
	ColorWhite = "white"
	ColorBlack = "black"
)

// Move is a move intent as submitted by a client.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// AppliedMove is the record of a validated and executed move.
type AppliedMove struct {
	Color     string `json:"color"`
	From      string `json:"from"`
	To        string `json:"to"`
	Piece     string `json:"piece"`
	San       string `json:"san"`
	Promotion string `json:"promotion,omitempty"`
}

// Position is an opaque chess position. A room owns exactly one and mutates
// it only through Engine.Apply.
type Position interface {
	FEN() string
	Turn() string
	IsGameOver() bool
	IsCheck() bool
	IsCheckmate() bool
	IsDraw() bool
	IsStalemate() bool
	History() []string
}

// Engine validates and applies moves against a position and reports game
// status. It is the only component that understands chess.
type Engine interface {
	NewGame() Position
	Load(fen string) (Position, error)
	Apply(pos Position, move Move) (Position, AppliedMove, error)
	LegalTargets(pos Position, from string) []string
}

type engine struct{}

// NewEngine - returns an Engine backed by notnil/chess.
func NewEngine() Engine {
	return &engine{}
}

func (that *engine) NewGame() Position {
	return &position{game: chess.NewGame()}
}

func (that *engine) Load(fen string) (Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fen: %w", err)
	}

	return &position{game: chess.NewGame(opt)}, nil
}

func (that *engine) Apply(pos Position, move Move) (Position, AppliedMove, error) {
	current, ok := pos.(*position)
	if !ok {
		return nil, AppliedMove{}, fmt.Errorf("%w: unknown position type", apperror.ErrInvalidMove)
	}

	matched := findMove(current.game.ValidMoves(), move)
	if matched == nil {
		return nil, AppliedMove{}, fmt.Errorf("%w: %s-%s", apperror.ErrInvalidMove, move.From, move.To)
	}

	before := current.game.Position()
	applied := AppliedMove{
		Color:     colorName(before.Turn()),
		From:      matched.S1().String(),
		To:        matched.S2().String(),
		Piece:     pieceLetter(before.Board().Piece(matched.S1()).Type()),
		San:       chess.AlgebraicNotation{}.Encode(before, matched),
		Promotion: promoLetter(matched.Promo()),
	}

	if err := current.game.Move(matched); err != nil {
		return nil, AppliedMove{}, fmt.Errorf("%w: %s", apperror.ErrInvalidMove, err)
	}

	return current, applied, nil
}

func (that *engine) LegalTargets(pos Position, from string) []string {
	current, ok := pos.(*position)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	targets := make([]string, 0, 8)

	for _, mv := range current.game.ValidMoves() {
		if mv.S1().String() != from {
			continue
		}

		// promotions produce one candidate move per piece, clients only need the square
		square := mv.S2().String()
		if _, ok := seen[square]; ok {
			continue
		}

		seen[square] = struct{}{}
		targets = append(targets, square)
	}

	return targets
}

// findMove - matches a move intent against the legal moves of the position.
// An omitted promotion on a promoting move defaults to a queen, which is what
// the reference client submits.
func findMove(valid []*chess.Move, move Move) *chess.Move {
	wanted := promoPiece(move.Promotion)

	var fallback *chess.Move
	for _, mv := range valid {
		if mv.S1().String() != move.From || mv.S2().String() != move.To {
			continue
		}

		if mv.Promo() == wanted {
			return mv
		}

		if wanted == chess.NoPieceType && mv.Promo() == chess.Queen {
			fallback = mv
		}
	}

	return fallback
}

type position struct {
	game *chess.Game
}

func (that *position) FEN() string {
	return that.game.FEN()
}

func (that *position) Turn() string {
	return colorName(that.game.Position().Turn())
}

func (that *position) IsGameOver() bool {
	return that.game.Outcome() != chess.NoOutcome
}

func (that *position) IsCheck() bool {
	moves := that.game.Moves()
	if len(moves) > 0 {
		return moves[len(moves)-1].HasTag(chess.Check)
	}

	// a game loaded from FEN has no move to carry the check tag, so the
	// status falls back to a board-level attack test on the king square
	return kingAttacked(that.game.Position())
}

func (that *position) IsCheckmate() bool {
	return that.game.Method() == chess.Checkmate
}

func (that *position) IsDraw() bool {
	return that.game.Outcome() == chess.Draw
}

func (that *position) IsStalemate() bool {
	return that.game.Method() == chess.Stalemate
}

func (that *position) History() []string {
	moves := that.game.Moves()
	positions := that.game.Positions()

	history := make([]string, 0, len(moves))
	for i, mv := range moves {
		history = append(history, chess.AlgebraicNotation{}.Encode(positions[i], mv))
	}

	return history
}

// kingAttacked - reports whether the side to move has its king under attack.
func kingAttacked(pos *chess.Position) bool {
	board := pos.Board().SquareMap()
	defender := pos.Turn()

	kingSq := chess.NoSquare
	for sq, piece := range board {
		if piece.Type() == chess.King && piece.Color() == defender {
			kingSq = sq
			break
		}
	}
	if kingSq == chess.NoSquare {
		return false
	}

	for sq, piece := range board {
		if piece.Color() == defender {
			continue
		}
		if attacks(piece, sq, kingSq, board) {
			return true
		}
	}

	return false
}

func attacks(piece chess.Piece, from, to chess.Square, board map[chess.Square]chess.Piece) bool {
	df := int(to.File()) - int(from.File())
	dr := int(to.Rank()) - int(from.Rank())

	switch piece.Type() {
	case chess.Pawn:
		forward := 1
		if piece.Color() == chess.Black {
			forward = -1
		}
		return dr == forward && (df == 1 || df == -1)
	case chess.Knight:
		return df*df+dr*dr == 5
	case chess.King:
		return df >= -1 && df <= 1 && dr >= -1 && dr <= 1
	case chess.Bishop:
		return df*df == dr*dr && clearPath(from, to, board)
	case chess.Rook:
		return (df == 0 || dr == 0) && clearPath(from, to, board)
	case chess.Queen:
		return (df == 0 || dr == 0 || df*df == dr*dr) && clearPath(from, to, board)
	}

	return false
}

// clearPath - true when every square strictly between from and to is empty.
// The caller guarantees the squares share a rank, file or diagonal.
func clearPath(from, to chess.Square, board map[chess.Square]chess.Piece) bool {
	stepFile := sign(int(to.File()) - int(from.File()))
	stepRank := sign(int(to.Rank()) - int(from.Rank()))

	file := int(from.File()) + stepFile
	rank := int(from.Rank()) + stepRank
	for file != int(to.File()) || rank != int(to.Rank()) {
		if _, occupied := board[chess.Square(rank*8+file)]; occupied {
			return false
		}
		file += stepFile
		rank += stepRank
	}

	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func colorName(color chess.Color) string {
	if color == chess.White {
		return ColorWhite
	}
	return ColorBlack
}

func pieceLetter(pieceType chess.PieceType) string {
	switch pieceType {
	case chess.King:
		return "k"
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	default:
		return "p"
	}
}

func promoPiece(letter string) chess.PieceType {
	switch letter {
	case "q":
		return chess.Queen
	case "r":
		return chess.Rook
	case "b":
		return chess.Bishop
	case "n":
		return chess.Knight
	default:
		return chess.NoPieceType
	}
}

func promoLetter(pieceType chess.PieceType) string {
	switch pieceType {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	default:
		return ""
	}
}
