package brain

import (
	"judgement/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // in an opponent's hand or the stock
	StatusMine                      // in the bot's hand
	StatusPlayed                    // already on the table this round
	StatusTrump                     // the face-up trump card
)

// GameMemory stores the bot's private view of the current round.
type GameMemory struct {
	// DeckStatus tracks all 52 cards, indexed by domain.CardIndex.
	DeckStatus [domain.DeckSize]CardStatus
	// Opponents tracks behavioural profiles by player id.
	Opponents map[string]*OpponentProfile
	TrumpSuit domain.Suit
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{
		Opponents: make(map[string]*OpponentProfile),
	}
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	m.Opponents = make(map[string]*OpponentProfile)
	m.TrumpSuit = ""
}

func (m *GameMemory) mark(cards []domain.Card, status CardStatus) {
	for _, c := range cards {
		if idx := domain.CardIndex(c); idx >= 0 {
			m.DeckStatus[idx] = status
		}
	}
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	m.mark(cards, StatusMine)
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	m.mark(cards, StatusPlayed)
}

func (m *GameMemory) profile(playerID string) *OpponentProfile {
	p, ok := m.Opponents[playerID]
	if !ok {
		p = NewOpponentProfile(playerID)
		m.Opponents[playerID] = p
	}
	return p
}

// RecordTrick replays a trick: every card is played, and anyone off the led suit is void in it.
func (m *GameMemory) RecordTrick(trick domain.Trick) {
	for _, pc := range trick.CardsPlayed {
		m.MarkPlayed([]domain.Card{pc.Card})
		if trick.LedSuit != "" && pc.Card.Suit != trick.LedSuit {
			m.profile(pc.PlayerID).RecordVoid(trick.LedSuit)
		}
	}
}

// Sync rebuilds the memory from a game snapshot as seen by playerID.
func (m *GameMemory) Sync(state *domain.GameState, playerID string) {
	m.Reset()
	m.TrumpSuit = state.TrumpSuit
	if state.TrumpCard != nil {
		m.mark([]domain.Card{*state.TrumpCard}, StatusTrump)
	}
	for _, t := range state.Tricks {
		m.RecordTrick(t)
	}
	if state.Phase == domain.PhasePlaying && state.CurrentTrick != nil {
		m.RecordTrick(*state.CurrentTrick)
	}
	for _, p := range state.Players {
		if p.ID == playerID {
			m.MarkMine(p.Hand)
			continue
		}
		op := m.profile(p.ID)
		op.Bid = p.BidValue()
		op.HasBid = p.HasBid()
		op.TricksWon = p.TricksWon
	}
}

// IsBoss reports whether no unseen card of the same suit outranks c.
func (m *GameMemory) IsBoss(c domain.Card) bool {
	idx := domain.CardIndex(c)
	if idx < 0 {
		return false
	}
	top := (idx/13)*13 + 12
	for i := idx + 1; i <= top; i++ {
		if m.DeckStatus[i] == StatusUnknown {
			return false
		}
	}
	return true
}

// IsPlayed returns true if the card is already out this round.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	idx := domain.CardIndex(c)
	return idx >= 0 && m.DeckStatus[idx] == StatusPlayed
}

// UnseenInSuit counts cards of suit that are neither in hand nor played.
func (m *GameMemory) UnseenInSuit(suit domain.Suit) int {
	n := 0
	for _, r := range domain.Ranks {
		idx := domain.CardIndex(domain.NewCard(suit, r))
		if m.DeckStatus[idx] == StatusUnknown {
			n++
		}
	}
	return n
}

// AnyOpponentVoid reports whether some opponent has shown out of suit.
func (m *GameMemory) AnyOpponentVoid(suit domain.Suit) bool {
	for _, p := range m.Opponents {
		if p.IsVoid(suit) {
			return true
		}
	}
	return false
}
