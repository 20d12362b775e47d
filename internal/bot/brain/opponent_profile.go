package brain

import "judgement/internal/domain"

// OpponentProfile tracks what a specific player has revealed this round.
type OpponentProfile struct {
	PlayerID  string
	Bid       int
	HasBid    bool
	TricksWon int
	// VoidSuits holds suits the player failed to follow.
	VoidSuits map[domain.Suit]bool
}

// NewOpponentProfile initializes a profile for a player.
func NewOpponentProfile(playerID string) *OpponentProfile {
	return &OpponentProfile{
		PlayerID:  playerID,
		VoidSuits: make(map[domain.Suit]bool),
	}
}

// RecordVoid notes that the player showed out of suit.
func (p *OpponentProfile) RecordVoid(suit domain.Suit) {
	p.VoidSuits[suit] = true
}

// IsVoid returns true if the player is known to hold no cards of suit.
func (p *OpponentProfile) IsVoid(suit domain.Suit) bool {
	return p.VoidSuits[suit]
}

// TricksNeeded returns how many more tricks the player wants; negative once they are over.
func (p *OpponentProfile) TricksNeeded() int {
	if !p.HasBid {
		return 0
	}
	return p.Bid - p.TricksWon
}
