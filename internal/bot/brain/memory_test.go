package brain

import (
	"testing"

	"judgement/internal/domain"
)

func TestGameMemory(t *testing.T) {
	m := NewMemory()

	for i := 0; i < domain.DeckSize; i++ {
		if m.DeckStatus[i] != StatusUnknown {
			t.Errorf("index %d should be unknown, got %d", i, m.DeckStatus[i])
		}
	}

	aceSpades := domain.NewCard(domain.SuitSpades, "A")
	m.MarkMine([]domain.Card{aceSpades})
	if m.DeckStatus[domain.CardIndex(aceSpades)] != StatusMine {
		t.Errorf("A♠ should be mine")
	}

	m.MarkPlayed([]domain.Card{aceSpades})
	if !m.IsPlayed(aceSpades) {
		t.Errorf("A♠ should be played")
	}

	m.Reset()
	if m.DeckStatus[domain.CardIndex(aceSpades)] != StatusUnknown {
		t.Errorf("after reset A♠ should be unknown")
	}
}

func TestIsBoss(t *testing.T) {
	m := NewMemory()
	king := domain.NewCard(domain.SuitHearts, "K")
	ace := domain.NewCard(domain.SuitHearts, "A")

	if m.IsBoss(king) {
		t.Fatalf("K♥ is not boss while A♥ is unseen")
	}
	m.MarkPlayed([]domain.Card{ace})
	if !m.IsBoss(king) {
		t.Fatalf("K♥ should be boss once A♥ is played")
	}
	// Higher cards of other suits do not matter.
	if !m.IsBoss(domain.NewCard(domain.SuitClubs, "A")) {
		t.Fatalf("an ace is always boss")
	}
}

func TestSyncRecordsVoids(t *testing.T) {
	bid := 1
	state := &domain.GameState{
		Phase:     domain.PhasePlaying,
		TrumpSuit: domain.SuitSpades,
		Players: []*domain.Player{
			{ID: "me", Hand: []domain.Card{domain.NewCard(domain.SuitHearts, "Q")}},
			{ID: "op", Bid: &bid, TricksWon: 1},
		},
		Tricks: []domain.Trick{{
			LedSuit: domain.SuitDiamonds,
			CardsPlayed: []domain.PlayedCard{
				{Card: domain.NewCard(domain.SuitDiamonds, "4"), PlayerID: "me"},
				{Card: domain.NewCard(domain.SuitSpades, "2"), PlayerID: "op"},
			},
			WinnerID: "op",
		}},
	}

	m := NewMemory()
	m.Sync(state, "me")

	if !m.Opponents["op"].IsVoid(domain.SuitDiamonds) {
		t.Fatalf("op should be void in diamonds")
	}
	if m.Opponents["op"].TricksNeeded() != 0 {
		t.Fatalf("op has made their bid, needed = %d", m.Opponents["op"].TricksNeeded())
	}
	if !m.AnyOpponentVoid(domain.SuitDiamonds) || m.AnyOpponentVoid(domain.SuitHearts) {
		t.Fatalf("void lookup mismatch")
	}
	if m.DeckStatus[domain.CardIndex(domain.NewCard(domain.SuitHearts, "Q"))] != StatusMine {
		t.Fatalf("hand should be marked mine")
	}
	if m.UnseenInSuit(domain.SuitDiamonds) != 12 {
		t.Fatalf("unseen diamonds = %d, want 12", m.UnseenInSuit(domain.SuitDiamonds))
	}
}
