package bot

import (
	"errors"

	"judgement/internal/domain"
)

// ErrNoDecision is returned when the bot is asked to act out of turn.
var ErrNoDecision = errors.New("bot has nothing to decide")

// Action represents the decision made by the AI: a bid while bidding, a card while playing.
type Action struct {
	IsBid  bool
	Bid    int
	CardID string
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChooseBid(state *domain.GameState, playerID string) (int, error)
	ChooseCard(state *domain.GameState, playerID string) (domain.Card, error)
}
