package bot

import (
	"fmt"

	"judgement/internal/bot/brain"
	"judgement/internal/domain"
)

// GoodBot bids its estimated hand strength, then wins cheaply while short of its bid and ducks once it is made.
type GoodBot struct{}

func (b *GoodBot) ChooseBid(state *domain.GameState, playerID string) (int, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return 0, err
	}
	mem := brain.NewMemory()
	mem.TrumpSuit = state.TrumpSuit
	return brain.NewEstimator(mem).SuggestBid(p.Hand, len(state.Players), legalBidsFor(state, p)), nil
}

func (b *GoodBot) ChooseCard(state *domain.GameState, playerID string) (domain.Card, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return domain.Card{}, err
	}
	playable := playableFor(state, p)
	if len(playable) == 0 {
		return domain.Card{}, fmt.Errorf("no playable card for %s", playerID)
	}
	sorted := byStrength(playable, state.TrumpSuit)
	leading := ledSuit(state) == ""

	if tricksNeeded(p) > 0 {
		if leading {
			return sorted[len(sorted)-1], nil
		}
		return cheapestWinner(state, playerID, sorted), nil
	}
	if leading {
		return sorted[0], nil
	}
	return highestLoser(state, playerID, sorted), nil
}

// cheapestWinner returns the weakest winning card, or the weakest card when nothing wins.
func cheapestWinner(state *domain.GameState, playerID string, sorted []domain.Card) domain.Card {
	for _, c := range sorted {
		if wouldWin(state, playerID, c) {
			return c
		}
	}
	return sorted[0]
}

// highestLoser returns the strongest card that still loses. When every card wins, the strongest goes.
func highestLoser(state *domain.GameState, playerID string, sorted []domain.Card) domain.Card {
	for i := len(sorted) - 1; i >= 0; i-- {
		if !wouldWin(state, playerID, sorted[i]) {
			return sorted[i]
		}
	}
	return sorted[len(sorted)-1]
}
