package bot

import (
	"fmt"
	"math/rand"
	"sort"

	"judgement/internal/domain"
)

// RandomBot picks uniformly among legal bids and playable cards.
type RandomBot struct {
	rng *rand.Rand
}

func (b *RandomBot) ChooseBid(state *domain.GameState, playerID string) (int, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return 0, err
	}
	legal := legalBidsFor(state, p)
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal bid for %s", playerID)
	}
	return legal[b.rng.Intn(len(legal))], nil
}

func (b *RandomBot) ChooseCard(state *domain.GameState, playerID string) (domain.Card, error) {
	p, err := seatView(state, playerID)
	if err != nil {
		return domain.Card{}, err
	}
	playable := playableFor(state, p)
	if len(playable) == 0 {
		return domain.Card{}, fmt.Errorf("no playable card for %s", playerID)
	}
	return playable[b.rng.Intn(len(playable))], nil
}

func seatView(state *domain.GameState, playerID string) (*domain.Player, error) {
	p := state.PlayerByID(playerID)
	if p == nil {
		return nil, fmt.Errorf("player %s not in game", playerID)
	}
	return p, nil
}

func legalBidsFor(state *domain.GameState, p *domain.Player) []int {
	others := 0
	for _, o := range state.Players {
		if o.ID != p.ID {
			others += o.BidValue()
		}
	}
	return domain.LegalBids(
		state.RoundConfig.CardsPerPlayer,
		state.DealerID == p.ID,
		state.Settings.DealerBidRestriction,
		others,
	)
}

func ledSuit(state *domain.GameState) domain.Suit {
	if state.CurrentTrick == nil {
		return ""
	}
	return state.CurrentTrick.LedSuit
}

func playableFor(state *domain.GameState, p *domain.Player) []domain.Card {
	return domain.PlayableCards(p.Hand, ledSuit(state), state.TrumpSuit)
}

func tricksNeeded(p *domain.Player) int {
	return p.BidValue() - p.TricksWon
}

// strength orders cards for play decisions; any trump outranks any side card.
func strength(c domain.Card, trump domain.Suit) int {
	if trump != "" && c.Suit == trump {
		return c.Value() + 100
	}
	return c.Value()
}

// byStrength returns a copy of cards ordered weakest first.
func byStrength(cards []domain.Card, trump domain.Suit) []domain.Card {
	out := append([]domain.Card{}, cards...)
	sort.SliceStable(out, func(i, j int) bool {
		return strength(out[i], trump) < strength(out[j], trump)
	})
	return out
}

// wouldWin reports whether playing card now leaves playerID holding the trick.
// A lead always holds the trick so far.
func wouldWin(state *domain.GameState, playerID string, card domain.Card) bool {
	trick := state.CurrentTrick
	if trick == nil || len(trick.CardsPlayed) == 0 {
		return true
	}
	played := append(append([]domain.PlayedCard{}, trick.CardsPlayed...), domain.PlayedCard{Card: card, PlayerID: playerID})
	winner, err := domain.DetermineTrickWinner(played, trick.LedSuit, state.TrumpSuit)
	return err == nil && winner.PlayerID == playerID
}

// isLastToPlay reports whether the trick closes with the next card.
func isLastToPlay(state *domain.GameState) bool {
	return state.CurrentTrick != nil && len(state.CurrentTrick.CardsPlayed) == len(state.Players)-1
}
