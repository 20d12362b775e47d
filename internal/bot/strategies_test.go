package bot

import (
	"errors"
	"math/rand"
	"testing"

	"judgement/internal/app"
	"judgement/internal/domain"
)

func card(s domain.Suit, r domain.Rank) domain.Card { return domain.NewCard(s, r) }

func intp(n int) *int { return &n }

// followState is a 3-player trick where "op" led 9♥ and "bot" is next.
func followState(hand []domain.Card, bid, won int) *domain.GameState {
	return &domain.GameState{
		Phase:     domain.PhasePlaying,
		TrumpSuit: domain.SuitSpades,
		Players: []*domain.Player{
			{ID: "op", Bid: intp(1)},
			{ID: "bot", Hand: hand, Bid: intp(bid), TricksWon: won},
			{ID: "op2", Bid: intp(0)},
		},
		CurrentTrick: &domain.Trick{
			Number:       1,
			LeadPlayerID: "op",
			LedSuit:      domain.SuitHearts,
			CardsPlayed:  []domain.PlayedCard{{Card: card(domain.SuitHearts, "9"), PlayerID: "op"}},
		},
		CurrentPlayerID: "bot",
	}
}

func TestGoodBot_WinsWhenShort(t *testing.T) {
	state := followState([]domain.Card{card(domain.SuitHearts, "K"), card(domain.SuitHearts, "10"), card(domain.SuitHearts, "5")}, 1, 0)
	got, err := (&GoodBot{}).ChooseCard(state, "bot")
	if err != nil {
		t.Fatalf("ChooseCard failed: %v", err)
	}
	if got.ID != "10♥" {
		t.Errorf("GoodBot should win cheaply with 10♥, played %s", got)
	}
}

func TestGoodBot_DucksWhenMade(t *testing.T) {
	state := followState([]domain.Card{card(domain.SuitHearts, "K"), card(domain.SuitHearts, "8"), card(domain.SuitHearts, "5")}, 0, 0)
	got, err := (&GoodBot{}).ChooseCard(state, "bot")
	if err != nil {
		t.Fatalf("ChooseCard failed: %v", err)
	}
	if got.ID != "8♥" {
		t.Errorf("GoodBot should duck with its highest loser 8♥, played %s", got)
	}
}

func TestGoodBot_RuffsWhenVoid(t *testing.T) {
	state := followState([]domain.Card{card(domain.SuitSpades, "2"), card(domain.SuitClubs, "A")}, 1, 0)
	got, err := (&GoodBot{}).ChooseCard(state, "bot")
	if err != nil {
		t.Fatalf("ChooseCard failed: %v", err)
	}
	if got.ID != "2♠" {
		t.Errorf("GoodBot should ruff with 2♠, played %s", got)
	}
}

func TestSmartBot_LeadsBoss(t *testing.T) {
	state := &domain.GameState{
		Phase:     domain.PhasePlaying,
		TrumpSuit: domain.SuitSpades,
		Players: []*domain.Player{
			{ID: "bot", Hand: []domain.Card{card(domain.SuitHearts, "Q"), card(domain.SuitClubs, "K")}, Bid: intp(1)},
			{ID: "op", Bid: intp(1), TricksWon: 1},
			{ID: "op2", Bid: intp(0)},
		},
		Tricks: []domain.Trick{{
			Number:  1,
			LedSuit: domain.SuitHearts,
			CardsPlayed: []domain.PlayedCard{
				{Card: card(domain.SuitHearts, "A"), PlayerID: "op"},
				{Card: card(domain.SuitHearts, "K"), PlayerID: "op2"},
				{Card: card(domain.SuitHearts, "2"), PlayerID: "bot"},
			},
			WinnerID: "op",
		}},
		CurrentTrick:    &domain.Trick{Number: 2, LeadPlayerID: "bot"},
		CurrentPlayerID: "bot",
	}

	good, _ := (&GoodBot{}).ChooseCard(state, "bot")
	if good.ID != "K♣" {
		t.Fatalf("GoodBot should lead its strongest card K♣, played %s", good)
	}
	smart, err := (&SmartBot{}).ChooseCard(state, "bot")
	if err != nil {
		t.Fatalf("ChooseCard failed: %v", err)
	}
	if smart.ID != "Q♥" {
		t.Errorf("SmartBot should lead the boss Q♥, played %s", smart)
	}
}

func TestBots_DealerBidIsLegal(t *testing.T) {
	hand := []domain.Card{card(domain.SuitSpades, "A"), card(domain.SuitSpades, "K"), card(domain.SuitClubs, "3")}
	state := &domain.GameState{
		Phase:       domain.PhaseBidding,
		TrumpSuit:   domain.SuitSpades,
		RoundConfig: domain.RoundConfig{Number: 3, CardsPerPlayer: 3},
		DealerID:    "bot",
		Settings:    domain.DefaultSettings(),
		Players: []*domain.Player{
			{ID: "op", Bid: intp(1)},
			{ID: "op2", Bid: intp(0)},
			{ID: "bot", Hand: hand},
		},
		CurrentBidderID: "bot",
	}
	brains := []Brain{&RandomBot{rng: rand.New(rand.NewSource(1))}, &GoodBot{}, &SmartBot{}}
	for _, b := range brains {
		for i := 0; i < 20; i++ {
			bid, err := b.ChooseBid(state, "bot")
			if err != nil {
				t.Fatalf("%T ChooseBid failed: %v", b, err)
			}
			if bid == 2 || bid < 0 || bid > 3 {
				t.Fatalf("%T chose illegal dealer bid %d", b, bid)
			}
		}
	}
}

func TestAgent_OutOfTurn(t *testing.T) {
	a := &Agent{ID: "bot", Strategy: &GoodBot{}}
	state := followState([]domain.Card{card(domain.SuitHearts, "K")}, 1, 0)
	state.CurrentPlayerID = "op2"
	if _, err := a.Decide(state); !errors.Is(err, ErrNoDecision) {
		t.Fatalf("Decide() error = %v, want ErrNoDecision", err)
	}
	state.CurrentPlayerID = "bot"
	act, err := a.Decide(state)
	if err != nil || act.IsBid || act.CardID != "K♥" {
		t.Fatalf("Decide() = %+v, %v", act, err)
	}
}

// Bots of every level must be able to finish a game without a rejected command.
func TestBots_PlayFullGame(t *testing.T) {
	for _, level := range []BotLevel{BotLevelEasy, BotLevelGood, BotLevelSmart} {
		for _, n := range []int{3, 5, 7} {
			rng := rand.New(rand.NewSource(int64(n) * 31))
			seats := make([]app.Seat, n)
			agents := make(map[string]*Agent, n)
			for i := range seats {
				id := string(rune('a' + i))
				seats[i] = app.Seat{UserID: id, Name: id}
				b, err := NewBrain(level, rng)
				if err != nil {
					t.Fatalf("NewBrain failed: %v", err)
				}
				agents[id] = &Agent{ID: id, Name: id, Level: level, Strategy: b}
			}

			eng := app.NewEngine(seats, "a", rng)
			settings := domain.DefaultSettings()
			settings.RoundType = domain.RoundTypeFull
			state, _, err := eng.Start(settings)
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			for steps := 0; state.Phase != domain.PhaseGameEnd; steps++ {
				if steps > 5000 {
					t.Fatalf("%v bots with %d players did not finish", level, n)
				}
				actor := state.CurrentPlayerID
				if state.Phase == domain.PhaseBidding {
					actor = state.CurrentBidderID
				}
				act, err := agents[actor].Decide(state)
				if err != nil {
					t.Fatalf("%v bot %s failed to decide in %s: %v", level, actor, state.Phase, err)
				}
				if act.IsBid {
					state, _, err = eng.PlaceBid(actor, act.Bid)
				} else {
					state, _, err = eng.PlayCard(actor, act.CardID)
				}
				if err != nil {
					t.Fatalf("%v bot %s action %+v rejected: %v", level, actor, act, err)
				}
			}
			if len(state.RoundHistory) != state.TotalRounds {
				t.Fatalf("history has %d rounds, want %d", len(state.RoundHistory), state.TotalRounds)
			}
		}
	}
}
