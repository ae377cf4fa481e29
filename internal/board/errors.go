package board

import "errors"

// Contract violations. These indicate a caller bug, not a game condition.
var (
	ErrIllegalMove  = errors.New("move not legal in this position")
	ErrEmptyHistory = errors.New("no move to reverse")
	ErrInvalidFEN   = errors.New("invalid FEN")
)
