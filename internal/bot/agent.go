package bot

import (
	"fmt"

	"judgement/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Level    BotLevel
	Strategy Brain
}

// Decide asks the agent for its next action based on the current game state.
func (a *Agent) Decide(state *domain.GameState) (Action, error) {
	if state.PlayerByID(a.ID) == nil {
		return Action{}, fmt.Errorf("agent %s is not seated", a.ID)
	}

	switch {
	case state.Phase == domain.PhaseBidding && state.CurrentBidderID == a.ID:
		bid, err := a.Strategy.ChooseBid(state, a.ID)
		if err != nil {
			return Action{}, err
		}
		return Action{IsBid: true, Bid: bid}, nil
	case state.Phase == domain.PhasePlaying && state.CurrentPlayerID == a.ID:
		card, err := a.Strategy.ChooseCard(state, a.ID)
		if err != nil {
			return Action{}, err
		}
		return Action{CardID: card.ID}, nil
	}
	return Action{}, ErrNoDecision
}
