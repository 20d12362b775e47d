package bot

import (
	"fmt"

	"judgement/internal/bot/brain"
	"judgement/internal/domain"
)

// SmartBot plays like GoodBot but tracks played cards and shown voids.
// It leads boss cards when it needs tricks and avoids winners that a later seat can still beat.
type SmartBot struct {
	Memory *brain.GameMemory
}

func (b *SmartBot) memory() *brain.GameMemory {
	if b.Memory == nil {
		b.Memory = brain.NewMemory()
	}
	return b.Memory
}

func (b *SmartBot) ChooseBid(state *domain.GameState, playerID string) (int, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return 0, err
	}
	mem := b.memory()
	mem.Sync(state, playerID)
	return brain.NewEstimator(mem).SuggestBid(p.Hand, len(state.Players), legalBidsFor(state, p)), nil
}

func (b *SmartBot) ChooseCard(state *domain.GameState, playerID string) (domain.Card, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return domain.Card{}, err
	}
	playable := playableFor(state, p)
	if len(playable) == 0 {
		return domain.Card{}, fmt.Errorf("no playable card for %s", playerID)
	}

	mem := b.memory()
	mem.Sync(state, playerID)
	trump := state.TrumpSuit
	sorted := byStrength(playable, trump)
	leading := ledSuit(state) == ""

	if tricksNeeded(p) > 0 {
		if leading {
			return b.lead(mem, sorted, trump), nil
		}
		if isLastToPlay(state) {
			return cheapestWinner(state, playerID, sorted), nil
		}
		// A boss or trump winner is safer than a card a later seat can cover.
		for _, c := range sorted {
			if wouldWin(state, playerID, c) && (mem.IsBoss(c) || c.Suit == trump) {
				return c, nil
			}
		}
		return cheapestWinner(state, playerID, sorted), nil
	}

	if leading {
		for _, c := range sorted {
			if c.Suit != trump && !mem.IsBoss(c) {
				return c, nil
			}
		}
		return sorted[0], nil
	}
	return highestLoser(state, playerID, sorted), nil
}

// lead picks the strongest boss that nobody can ruff, falling back to the strongest card.
func (b *SmartBot) lead(mem *brain.GameMemory, sorted []domain.Card, trump domain.Suit) domain.Card {
	for i := len(sorted) - 1; i >= 0; i-- {
		c := sorted[i]
		if !mem.IsBoss(c) {
			continue
		}
		if c.Suit == trump || trump == "" || !mem.AnyOpponentVoid(c.Suit) {
			return c
		}
	}
	return sorted[len(sorted)-1]
}
