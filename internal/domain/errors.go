package domain

import "errors"

var (
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrMustFollowSuit = errors.New("must follow suit")
	ErrEmptyTrick     = errors.New("no cards played in trick")
	ErrDealTooLarge   = errors.New("not enough cards to deal")
	ErrInvalidRound   = errors.New("invalid round")
	ErrInvalidSetting = errors.New("invalid game settings")
)
