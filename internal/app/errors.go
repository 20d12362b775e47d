package app

import (
	"errors"
	"fmt"

	"judgement/internal/domain"
)

var (
	ErrTooFewPlayers    = fmt.Errorf("need at least %d players", MinPlayersToStartGame)
	ErrTooManyPlayers   = fmt.Errorf("cannot have more than %d players", MaxPlayers)
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotBidding       = errors.New("not in bidding phase")
	ErrNotPlaying       = errors.New("not in playing phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrBidOutOfRange    = errors.New("bid out of range")
	ErrIllegalDealerBid = errors.New("illegal dealer bid")
	ErrNothingToAdvance = errors.New("nothing to advance")
	ErrGameOver         = errors.New("game is over")

	ErrCardNotInHand  = domain.ErrCardNotInHand
	ErrMustFollowSuit = domain.ErrMustFollowSuit
)

// InvalidStateError reports a structural impossibility; the command is aborted.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func errInvalidState(format string, args ...any) error {
	return InvalidStateError(fmt.Sprintf(format, args...))
}

// IsRejection reports whether err is an ordinary rejected command rather than a broken engine.
func IsRejection(err error) bool {
	var ise InvalidStateError
	return err != nil && !errors.As(err, &ise)
}
