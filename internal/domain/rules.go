package domain

// maxCardsByPlayers is the largest hand each player count can be dealt.
var maxCardsByPlayers = map[int]int{
	3: 17,
	4: 13,
	5: 10,
	6: 8,
	7: 7,
}

const defaultMaxCards = 13

// DetermineMaxCards returns the peak hand size for a player count.
func DetermineMaxCards(numPlayers int) int {
	if n, ok := maxCardsByPlayers[numPlayers]; ok {
		return n
	}
	return defaultMaxCards
}

// RoundSequence lists the cards dealt per player for each round.
// Ascending is 1..maxRound; full continues back down to 1 without repeating the peak.
func RoundSequence(maxRound int, roundType RoundType) []int {
	seq := make([]int, 0, 2*maxRound)
	for i := 1; i <= maxRound; i++ {
		seq = append(seq, i)
	}
	if roundType == RoundTypeFull {
		for i := maxRound - 1; i >= 1; i-- {
			seq = append(seq, i)
		}
	}
	return seq
}

// RoundConfigFor returns the config for a 1-based round number.
// IsAscending holds through the peak round and turns false in the descending tail.
func RoundConfigFor(roundNumber int, sequence []int, maxRound int) (RoundConfig, bool) {
	if roundNumber < 1 || roundNumber > len(sequence) {
		return RoundConfig{}, false
	}
	return RoundConfig{
		Number:         roundNumber,
		CardsPerPlayer: sequence[roundNumber-1],
		IsAscending:    roundNumber <= maxRound,
		MaxRound:       maxRound,
	}, true
}

// IsIllegalDealerBid reports whether the dealer's bid would make the bids sum to the tricks available.
func IsIllegalDealerBid(bid, totalOtherBids, cardsInRound int) bool {
	return bid+totalOtherBids == cardsInRound
}

// LegalBids lists the bids a player may place. The dealer loses the one bid that balances the table.
func LegalBids(cardsInRound int, isDealer, restricted bool, totalOtherBids int) []int {
	bids := make([]int, 0, cardsInRound+1)
	for b := 0; b <= cardsInRound; b++ {
		if isDealer && restricted && IsIllegalDealerBid(b, totalOtherBids, cardsInRound) {
			continue
		}
		bids = append(bids, b)
	}
	return bids
}

func hasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// PlayableCards returns the cards in hand that may legally be played.
// An empty ledSuit means the player is leading. Trump never affects legality.
func PlayableCards(hand []Card, ledSuit Suit, trumpSuit Suit) []Card {
	if ledSuit == "" || !hasSuit(hand, ledSuit) {
		return append([]Card{}, hand...)
	}
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit == ledSuit {
			out = append(out, c)
		}
	}
	return out
}

// CanPlayCard validates a single play against the hand and the led suit.
func CanPlayCard(card Card, hand []Card, ledSuit Suit) error {
	if _, ok := FindCardByID(hand, card.ID); !ok {
		return ErrCardNotInHand
	}
	if ledSuit == "" || card.Suit == ledSuit {
		return nil
	}
	if hasSuit(hand, ledSuit) {
		return ErrMustFollowSuit
	}
	return nil
}

// DetermineTrickWinner returns the winning play: the highest trump if any was played,
// otherwise the highest card of the led suit.
func DetermineTrickWinner(cards []PlayedCard, ledSuit Suit, trumpSuit Suit) (PlayedCard, error) {
	if len(cards) == 0 {
		return PlayedCard{}, ErrEmptyTrick
	}

	best := -1
	bestTrump := false
	for i, pc := range cards {
		isTrump := trumpSuit != "" && pc.Card.Suit == trumpSuit
		switch {
		case isTrump && !bestTrump:
			best, bestTrump = i, true
		case isTrump && bestTrump:
			if pc.Card.Value() > cards[best].Card.Value() {
				best = i
			}
		case !bestTrump && pc.Card.Suit == ledSuit:
			if best < 0 || pc.Card.Value() > cards[best].Card.Value() {
				best = i
			}
		}
	}
	if best < 0 {
		// Nobody followed the led suit and no trump fell: the lead holds.
		best = 0
	}
	return cards[best], nil
}

// IsGameEnd reports whether the next round number runs past the sequence.
func IsGameEnd(nextRound, totalRounds int) bool {
	return nextRound > totalRounds
}
