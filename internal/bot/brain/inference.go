package brain

import (
	"math"

	"judgement/internal/domain"
)

// Estimator provides trick-taking estimates based on memory.
type Estimator struct {
	Memory *GameMemory
}

// NewEstimator creates a new reasoning engine.
func NewEstimator(m *GameMemory) *Estimator {
	return &Estimator{Memory: m}
}

// BossCards returns the cards in hand that currently top their suit.
func (e *Estimator) BossCards(hand []domain.Card) []domain.Card {
	var out []domain.Card
	for _, c := range hand {
		if e.Memory.IsBoss(c) {
			out = append(out, c)
		}
	}
	return out
}

// TrickValue estimates the chance, 0.0 to 1.0, that a card takes a trick this round.
func (e *Estimator) TrickValue(c domain.Card, hand []domain.Card, numPlayers int) float64 {
	suitLen := 0
	for _, h := range hand {
		if h.Suit == c.Suit {
			suitLen++
		}
	}

	if e.Memory.TrumpSuit != "" && c.Suit == e.Memory.TrumpSuit {
		switch {
		case c.Value() >= 13:
			return 1.0
		case c.Value() >= 11:
			return 0.75
		case suitLen >= 3:
			return 0.5
		default:
			return 0.25
		}
	}

	// Side suits lose value as the table grows; more players means more chances to be trumped.
	crowd := 1.0 - 0.05*float64(numPlayers-3)
	switch {
	case c.Value() == 14:
		return 0.85 * crowd
	case c.Value() == 13 && suitLen <= 3:
		return 0.5 * crowd
	case c.Value() == 12 && suitLen <= 2:
		return 0.25 * crowd
	default:
		return 0
	}
}

// ExpectedTricks sums TrickValue over the hand.
func (e *Estimator) ExpectedTricks(hand []domain.Card, numPlayers int) float64 {
	total := 0.0
	for _, c := range hand {
		total += e.TrickValue(c, hand, numPlayers)
	}
	return total
}

// SuggestBid rounds the expectation to the nearest legal bid.
func (e *Estimator) SuggestBid(hand []domain.Card, numPlayers int, legal []int) int {
	if len(legal) == 0 {
		return 0
	}
	target := e.ExpectedTricks(hand, numPlayers)
	best := legal[0]
	bestDist := math.Inf(1)
	for _, b := range legal {
		d := math.Abs(float64(b) - target)
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}
