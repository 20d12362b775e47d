package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// Suit is one of the four French suits.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Rank is the face of a card, "2".."10", "J", "Q", "K", "A".
type Rank string

// Suits lists suits in deck construction order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Ranks lists ranks from Ace down to 2.
var Ranks = []Rank{"A", "K", "Q", "J", "10", "9", "8", "7", "6", "5", "4", "3", "2"}

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

var rankValues = map[Rank]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "K": 13, "A": 14,
}

var suitSymbols = map[Suit]string{
	SuitHearts:   "♥",
	SuitDiamonds: "♦",
	SuitClubs:    "♣",
	SuitSpades:   "♠",
}

// hand display order: spades, hearts, diamonds, clubs
var suitSortOrder = map[Suit]int{
	SuitSpades:   0,
	SuitHearts:   1,
	SuitDiamonds: 2,
	SuitClubs:    3,
}

// Card is a single playing card. ID is rank followed by the suit symbol, e.g. "10♥".
type Card struct {
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
	ID   string `json:"id"`
}

// NewCard builds a card with its canonical id.
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank, ID: string(rank) + suitSymbols[suit]}
}

// Value returns the comparable rank value, 2 through 14 (Ace high). Unknown ranks are 0.
func (c Card) Value() int {
	return rankValues[c.Rank]
}

func (c Card) String() string {
	return c.ID
}

// RankValue returns the numeric value for a rank.
func RankValue(r Rank) int {
	return rankValues[r]
}

// IsValidSuit reports whether s is one of the four suits.
func IsValidSuit(s Suit) bool {
	_, ok := suitSymbols[s]
	return ok
}

// NewDeck returns an ordered 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealCards splits deck into numPlayers hands of cardsPerPlayer cards in deck order.
// The remainder is returned as the stock pile.
func DealCards(deck []Card, numPlayers, cardsPerPlayer int) ([][]Card, []Card, error) {
	if numPlayers <= 0 || cardsPerPlayer < 0 {
		return nil, nil, fmt.Errorf("%w: %d players x %d cards", ErrDealTooLarge, numPlayers, cardsPerPlayer)
	}
	dealt := numPlayers * cardsPerPlayer
	if dealt > len(deck) {
		return nil, nil, fmt.Errorf("%w: %d cards requested from %d", ErrDealTooLarge, dealt, len(deck))
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = append([]Card{}, deck[i*cardsPerPlayer:(i+1)*cardsPerPlayer]...)
	}
	stock := append([]Card{}, deck[dealt:]...)
	return hands, stock, nil
}

// SortHand returns a copy ordered by suit (spades, hearts, diamonds, clubs) then rank descending.
func SortHand(hand []Card) []Card {
	out := append([]Card{}, hand...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := suitSortOrder[out[i].Suit], suitSortOrder[out[j].Suit]
		if si != sj {
			return si < sj
		}
		return out[i].Value() > out[j].Value()
	})
	return out
}

// FindCardByID looks up a card in hand.
func FindCardByID(hand []Card, id string) (Card, bool) {
	for _, c := range hand {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// RemoveCardFromHand returns a copy of hand without the card identified by id.
func RemoveCardFromHand(hand []Card, id string) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.ID == id {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CardIndex maps a card to a dense 0..51 index, -1 for an unknown card.
func CardIndex(c Card) int {
	v := c.Value()
	if v == 0 {
		return -1
	}
	for i, s := range Suits {
		if s == c.Suit {
			return i*13 + (v - 2)
		}
	}
	return -1
}
