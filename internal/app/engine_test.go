package app

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"judgement/internal/domain"
)

func roster(n int) []Seat {
	seats := make([]Seat, n)
	for i := range seats {
		id := string(rune('a' + i))
		seats[i] = Seat{UserID: id, Name: "player-" + id}
	}
	return seats
}

func newEngine(n int, seed int64) *Engine {
	return NewEngine(roster(n), "a", rand.New(rand.NewSource(seed)))
}

func mustStart(t *testing.T, e *Engine, settings domain.GameSettings) *domain.GameState {
	t.Helper()
	g, _, err := e.Start(settings)
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}
	return g
}

// checkInvariants asserts the bookkeeping rules that must hold after every command.
func checkInvariants(t *testing.T, g *domain.GameState) {
	t.Helper()

	sum := 0
	for _, p := range g.Players {
		sum += p.BidValue()
	}
	if sum != g.TotalBids {
		t.Fatalf("totalBids = %d, sum of bids = %d", g.TotalBids, sum)
	}

	seen := make(map[string]bool)
	count := func(cards []domain.Card) {
		for _, c := range cards {
			if seen[c.ID] {
				t.Fatalf("card %s appears twice (round %d, phase %s)", c.ID, g.CurrentRound, g.Phase)
			}
			seen[c.ID] = true
		}
	}
	for _, p := range g.Players {
		count(p.Hand)
	}
	count(g.StockPile)
	for _, tr := range g.Tricks {
		for _, pc := range tr.CardsPlayed {
			count([]domain.Card{pc.Card})
		}
	}
	if g.Phase == domain.PhasePlaying && g.CurrentTrick != nil {
		for _, pc := range g.CurrentTrick.CardsPlayed {
			count([]domain.Card{pc.Card})
		}
	}
	if len(seen) != domain.DeckSize {
		t.Fatalf("round %d accounts for %d cards, want %d", g.CurrentRound, len(seen), domain.DeckSize)
	}

	if len(g.StockPile) == 0 {
		if !g.IsNoTrump || g.TrumpCard != nil {
			t.Fatalf("empty stock should mean no trump")
		}
	} else if g.TrumpCard == nil || g.TrumpCard.ID != g.StockPile[0].ID || g.TrumpSuit != g.StockPile[0].Suit {
		t.Fatalf("trump should be the top stock card")
	}

	if g.PlayerByID(g.DealerID) == nil {
		t.Fatalf("dealer %q is not a player", g.DealerID)
	}
	switch g.Phase {
	case domain.PhaseBidding:
		if g.CurrentBidderID == "" || g.CurrentPlayerID != "" {
			t.Fatalf("bidding turn mismatch: bidder=%q player=%q", g.CurrentBidderID, g.CurrentPlayerID)
		}
	case domain.PhasePlaying:
		if g.CurrentPlayerID == "" || g.CurrentBidderID != "" {
			t.Fatalf("playing turn mismatch: bidder=%q player=%q", g.CurrentBidderID, g.CurrentPlayerID)
		}
	}
}

// playToEnd drives the game with the first legal action until game_end.
func playToEnd(t *testing.T, e *Engine) *domain.GameState {
	t.Helper()
	for i := 0; i < 100000; i++ {
		g := e.State()
		var err error
		switch g.Phase {
		case domain.PhaseBidding:
			p := g.PlayerByID(g.CurrentBidderID)
			bids := domain.LegalBids(g.RoundConfig.CardsPerPlayer, p.ID == g.DealerID, g.Settings.DealerBidRestriction, g.TotalBids)
			_, _, err = e.PlaceBid(p.ID, bids[len(bids)/2])
		case domain.PhasePlaying:
			p := g.PlayerByID(g.CurrentPlayerID)
			cards := domain.PlayableCards(p.Hand, g.CurrentTrick.LedSuit, g.TrumpSuit)
			_, _, err = e.PlayCard(p.ID, cards[0].ID)
		case domain.PhaseTrickResult, domain.PhaseScoreboard:
			_, _, err = e.Advance()
		case domain.PhaseGameEnd:
			return g
		default:
			t.Fatalf("unexpected phase %s", g.Phase)
		}
		if err != nil {
			t.Fatalf("command failed in %s: %v", g.Phase, err)
		}
		checkInvariants(t, e.State())
	}
	t.Fatalf("game did not finish")
	return nil
}

func TestStartRequiresThreePlayers(t *testing.T) {
	e := newEngine(2, 1)
	if _, _, err := e.Start(domain.DefaultSettings()); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("expected ErrTooFewPlayers, got %v", err)
	}
	if e.Phase() != domain.PhaseLobby {
		t.Fatalf("failed start should stay in lobby, got %s", e.Phase())
	}

	e = newEngine(8, 1)
	if _, _, err := e.Start(domain.DefaultSettings()); !errors.Is(err, ErrTooManyPlayers) {
		t.Fatalf("expected ErrTooManyPlayers, got %v", err)
	}
}

func TestStartRejectsBadSettingsAndRestart(t *testing.T) {
	e := newEngine(3, 1)
	bad := domain.DefaultSettings()
	bad.MaxRounds = 0
	if _, _, err := e.Start(bad); !errors.Is(err, domain.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}

	mustStart(t, e, domain.DefaultSettings())
	if _, _, err := e.Start(domain.DefaultSettings()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartDealsAndOpensBidding(t *testing.T) {
	e := newEngine(4, 42)
	g, evs, err := e.Start(domain.DefaultSettings())
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}

	if g.Phase != domain.PhaseBidding {
		t.Fatalf("phase = %s, want bidding", g.Phase)
	}
	if g.CurrentRound != 1 || g.RoundConfig.CardsPerPlayer != 1 || g.TotalRounds != 13 {
		t.Fatalf("round setup = %d/%d cards=%d", g.CurrentRound, g.TotalRounds, g.RoundConfig.CardsPerPlayer)
	}
	if g.DealerID != "a" {
		t.Fatalf("first dealer = %s, want host a", g.DealerID)
	}
	if !reflect.DeepEqual(g.BiddingOrder, []string{"b", "c", "d", "a"}) {
		t.Fatalf("bidding order = %v", g.BiddingOrder)
	}
	if g.CurrentBidderID != "b" {
		t.Fatalf("first bidder = %s, want b", g.CurrentBidderID)
	}
	if g.GameID == "" {
		t.Fatalf("expected a game id")
	}
	checkInvariants(t, g)

	kinds := make(map[EventKind]int)
	for _, ev := range evs {
		kinds[ev.Kind]++
		if ev.Kind == EventHandDealt {
			payload := ev.Payload.(HandDealtPayload)
			if len(ev.Recipients) != 1 || ev.Recipients[0] != payload.UserID {
				t.Fatalf("hand_dealt must be private, recipients = %v", ev.Recipients)
			}
			if len(payload.Hand) != 1 {
				t.Fatalf("hand size = %d, want 1", len(payload.Hand))
			}
		}
	}
	want := map[EventKind]int{
		EventGameStarted:    1,
		EventRoundStarted:   1,
		EventHandDealt:      4,
		EventTrumpRevealed:  1,
		EventBiddingStarted: 1,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("start events = %v, want %v", kinds, want)
	}
}

func TestPlaceBidValidation(t *testing.T) {
	e := newEngine(3, 5)
	mustStart(t, e, domain.DefaultSettings())
	// Round 1: one card each, dealer a, order b c a.

	if _, _, err := e.PlaceBid("a", 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, _, err := e.PlaceBid("b", 2); !errors.Is(err, ErrBidOutOfRange) {
		t.Fatalf("expected ErrBidOutOfRange, got %v", err)
	}
	if _, _, err := e.PlaceBid("b", -1); !errors.Is(err, ErrBidOutOfRange) {
		t.Fatalf("expected ErrBidOutOfRange for negative bid, got %v", err)
	}
	if _, _, err := e.PlayCard("b", "A♠"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}

	if _, _, err := e.PlaceBid("b", 0); err != nil {
		t.Fatalf("bid b: %v", err)
	}
	g, evs, err := e.PlaceBid("c", 0)
	if err != nil {
		t.Fatalf("bid c: %v", err)
	}
	if g.TotalBids != 0 || g.CurrentBidderID != "a" {
		t.Fatalf("after c: total=%d next=%s", g.TotalBids, g.CurrentBidderID)
	}
	if len(evs) != 1 || evs[0].Kind != EventBidPlaced {
		t.Fatalf("expected one bid_placed event, got %v", evs)
	}

	if _, _, err := e.PlaceBid("a", 1); !errors.Is(err, ErrIllegalDealerBid) {
		t.Fatalf("expected ErrIllegalDealerBid, got %v", err)
	}

	g, _, err = e.PlaceBid("a", 0)
	if err != nil {
		t.Fatalf("dealer bid 0: %v", err)
	}
	if g.Phase != domain.PhasePlaying || !g.AllBidsPlaced || g.CurrentBidderID != "" {
		t.Fatalf("bidding should close: phase=%s all=%t bidder=%q", g.Phase, g.AllBidsPlaced, g.CurrentBidderID)
	}
	if g.CurrentPlayerID != "b" || !reflect.DeepEqual(g.PlayOrder, g.BiddingOrder) {
		t.Fatalf("play should start left of dealer: current=%s order=%v", g.CurrentPlayerID, g.PlayOrder)
	}
}

func TestDealerRestrictionDisabled(t *testing.T) {
	e := newEngine(3, 5)
	settings := domain.DefaultSettings()
	settings.DealerBidRestriction = false
	mustStart(t, e, settings)

	for _, id := range []string{"b", "c"} {
		if _, _, err := e.PlaceBid(id, 0); err != nil {
			t.Fatalf("bid %s: %v", id, err)
		}
	}
	if _, _, err := e.PlaceBid("a", 1); err != nil {
		t.Fatalf("dealer should be free to balance the table: %v", err)
	}
}

// biddingDone starts a 3-player game and bids through round 1.
func biddingDone(t *testing.T, settings domain.GameSettings) *Engine {
	t.Helper()
	e := newEngine(3, 9)
	mustStart(t, e, settings)
	for _, id := range []string{"b", "c", "a"} {
		if _, _, err := e.PlaceBid(id, 0); err != nil {
			t.Fatalf("bid %s: %v", id, err)
		}
	}
	return e
}

func TestPlayCardFollowSuit(t *testing.T) {
	e := biddingDone(t, domain.DefaultSettings())

	// Replace the dealt hands with known two-card hands.
	e.state.RoundConfig.CardsPerPlayer = 2
	e.state.PlayerByID("b").Hand = []domain.Card{domain.NewCard(domain.SuitHearts, "9"), domain.NewCard(domain.SuitClubs, "2")}
	e.state.PlayerByID("c").Hand = []domain.Card{domain.NewCard(domain.SuitHearts, "K"), domain.NewCard(domain.SuitSpades, "A")}
	e.state.PlayerByID("a").Hand = []domain.Card{domain.NewCard(domain.SuitDiamonds, "3"), domain.NewCard(domain.SuitClubs, "5")}
	e.state.TrumpSuit = domain.SuitDiamonds
	e.state.Deck = nil
	e.state.StockPile = nil

	if _, _, err := e.PlayCard("c", "K♥"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, _, err := e.PlayCard("b", "Q♥"); !errors.Is(err, ErrCardNotInHand) {
		t.Fatalf("expected ErrCardNotInHand, got %v", err)
	}
	g, _, err := e.PlayCard("b", "9♥")
	if err != nil {
		t.Fatalf("lead: %v", err)
	}
	if g.CurrentTrick.LedSuit != domain.SuitHearts || g.CurrentPlayerID != "c" {
		t.Fatalf("after lead: led=%s next=%s", g.CurrentTrick.LedSuit, g.CurrentPlayerID)
	}

	before := e.State()
	if _, _, err := e.PlayCard("c", "A♠"); !errors.Is(err, ErrMustFollowSuit) {
		t.Fatalf("expected ErrMustFollowSuit, got %v", err)
	}
	if !reflect.DeepEqual(before, e.State()) {
		t.Fatalf("rejected play changed state")
	}

	if _, _, err := e.PlayCard("c", "K♥"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	// a has no hearts and trumps in.
	g, evs, err := e.PlayCard("a", "3♦")
	if err != nil {
		t.Fatalf("trump in: %v", err)
	}
	if g.PlayerByID("a").TricksWon != 1 {
		t.Fatalf("trump should win the trick, tricks = %d", g.PlayerByID("a").TricksWon)
	}
	if g.Phase != domain.PhasePlaying || g.CurrentPlayerID != "a" || g.CurrentTrick.Number != 2 {
		t.Fatalf("winner should lead trick 2: phase=%s current=%s", g.Phase, g.CurrentPlayerID)
	}
	found := false
	for _, ev := range evs {
		if ev.Kind == EventTrickCompleted {
			found = true
			if ev.Payload.(TrickCompletedPayload).WinnerID != "a" {
				t.Fatalf("trick winner = %v", ev.Payload)
			}
		}
	}
	if !found {
		t.Fatalf("expected trick_completed event")
	}
}

func TestManualAdvance(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.AutoAdvance = false
	e := biddingDone(t, settings)

	if _, _, err := e.Advance(); !errors.Is(err, ErrNothingToAdvance) {
		t.Fatalf("expected ErrNothingToAdvance while playing, got %v", err)
	}

	var g *domain.GameState
	for i := 0; i < 3; i++ {
		cur := e.State()
		p := cur.PlayerByID(cur.CurrentPlayerID)
		var err error
		g, _, err = e.PlayCard(p.ID, p.Hand[0].ID)
		if err != nil {
			t.Fatalf("play %s: %v", p.ID, err)
		}
	}
	if g.Phase != domain.PhaseTrickResult {
		t.Fatalf("phase = %s, want trick_result", g.Phase)
	}
	if _, _, err := e.PlayCard("b", "x"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying during trick_result, got %v", err)
	}

	g, evs, err := e.Advance()
	if err != nil {
		t.Fatalf("advance from trick_result: %v", err)
	}
	if g.Phase != domain.PhaseScoreboard || len(g.RoundHistory) != 1 {
		t.Fatalf("phase = %s history = %d, want scoreboard with 1 result", g.Phase, len(g.RoundHistory))
	}
	if len(evs) != 1 || evs[0].Kind != EventRoundCompleted {
		t.Fatalf("expected round_completed, got %v", evs)
	}
	if g.DealerID != "b" {
		t.Fatalf("dealer should rotate to b, got %s", g.DealerID)
	}

	g, _, err = e.Advance()
	if err != nil {
		t.Fatalf("advance from scoreboard: %v", err)
	}
	if g.Phase != domain.PhaseBidding || g.CurrentRound != 2 || g.RoundConfig.CardsPerPlayer != 2 {
		t.Fatalf("round 2 should be bidding: phase=%s round=%d", g.Phase, g.CurrentRound)
	}
	if !reflect.DeepEqual(g.BiddingOrder, []string{"c", "a", "b"}) {
		t.Fatalf("round 2 bidding order = %v", g.BiddingOrder)
	}
}

func TestRoundResultRecordsScores(t *testing.T) {
	e := biddingDone(t, domain.DefaultSettings())
	for i := 0; i < 3; i++ {
		cur := e.State()
		p := cur.PlayerByID(cur.CurrentPlayerID)
		cards := domain.PlayableCards(p.Hand, cur.CurrentTrick.LedSuit, cur.TrumpSuit)
		if _, _, err := e.PlayCard(p.ID, cards[0].ID); err != nil {
			t.Fatalf("play %s: %v", p.ID, err)
		}
	}

	g := e.State()
	if len(g.RoundHistory) != 1 {
		t.Fatalf("history = %d, want 1", len(g.RoundHistory))
	}
	made, missed := 0, 0
	for _, r := range g.RoundHistory[0].PlayerResults {
		if r.MadeBid {
			made++
			if r.PointsEarned != 10 {
				t.Fatalf("made zero bid should score 10, got %d", r.PointsEarned)
			}
		} else {
			missed++
			if r.PointsEarned != -5 {
				t.Fatalf("missed zero bid by one should score -5, got %d", r.PointsEarned)
			}
		}
	}
	if made != 2 || missed != 1 {
		t.Fatalf("made=%d missed=%d, want 2/1", made, missed)
	}
	if g.Phase != domain.PhaseBidding || g.CurrentRound != 2 {
		t.Fatalf("auto advance should open round 2 bidding, got %s round %d", g.Phase, g.CurrentRound)
	}
}

func TestFullAscendingGameThreePlayers(t *testing.T) {
	e := newEngine(3, 2024)
	mustStart(t, e, domain.DefaultSettings())

	g := playToEnd(t, e)

	if g.Phase != domain.PhaseGameEnd {
		t.Fatalf("phase = %s, want game_end", g.Phase)
	}
	if g.TotalRounds != 17 || g.CurrentRound != 17 || len(g.RoundHistory) != 17 {
		t.Fatalf("rounds total=%d current=%d history=%d, want 17", g.TotalRounds, g.CurrentRound, len(g.RoundHistory))
	}
	for _, p := range g.Players {
		if len(p.Hand) != 0 {
			t.Fatalf("player %s still holds %d cards", p.ID, len(p.Hand))
		}
	}

	if _, _, err := e.PlaceBid("a", 0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if _, _, err := e.Advance(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver from Advance, got %v", err)
	}

	standings := e.FinalStandings()
	for i := 1; i < len(standings); i++ {
		if standings[i-1].TotalScore < standings[i].TotalScore {
			t.Fatalf("standings not sorted: %d before %d", standings[i-1].TotalScore, standings[i].TotalScore)
		}
	}
	for _, w := range e.Winners() {
		if w.TotalScore != standings[0].TotalScore {
			t.Fatalf("winner %s has %d, top is %d", w.ID, w.TotalScore, standings[0].TotalScore)
		}
	}
}

func TestFullSequenceRoundCounts(t *testing.T) {
	tests := []struct {
		name    string
		players int
		rounds  int
		manual  bool
	}{
		{name: "four players full", players: 4, rounds: 25},
		{name: "seven players full", players: 7, rounds: 13},
		{name: "five players full paused", players: 5, rounds: 19, manual: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.players, int64(tt.players))
			settings := domain.DefaultSettings()
			settings.RoundType = domain.RoundTypeFull
			settings.AutoAdvance = !tt.manual
			mustStart(t, e, settings)

			g := playToEnd(t, e)
			if len(g.RoundHistory) != tt.rounds {
				t.Fatalf("rounds played = %d, want %d", len(g.RoundHistory), tt.rounds)
			}
			for i, r := range g.RoundHistory {
				sum := 0
				for _, pr := range r.PlayerResults {
					sum += pr.TricksWon
				}
				if sum != r.CardsPerPlayer {
					t.Fatalf("round %d tricks = %d, want %d", i+1, sum, r.CardsPerPlayer)
				}
			}
		})
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	e := newEngine(3, 11)
	g := mustStart(t, e, domain.DefaultSettings())
	g.Players[0].Hand = nil
	g.Phase = domain.PhaseGameEnd

	fresh := e.State()
	if fresh.Phase != domain.PhaseBidding || len(fresh.Players[0].Hand) != 1 {
		t.Fatalf("mutating a snapshot leaked into the engine")
	}
}

func TestInvalidStateIsNotRejection(t *testing.T) {
	e := newEngine(3, 1)
	e.state.HostID = "ghost"
	_, _, err := e.Start(domain.DefaultSettings())
	var ise InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if IsRejection(err) {
		t.Fatalf("invalid state should not be classed as a rejection")
	}
	if !IsRejection(ErrNotYourTurn) {
		t.Fatalf("ErrNotYourTurn should be a rejection")
	}
}

func TestTurnFollowsPhase(t *testing.T) {
	e := newEngine(3, 11)
	if phase, actor := e.Turn(); phase != domain.PhaseLobby || actor != "" {
		t.Fatalf("lobby Turn() = %s, %q", phase, actor)
	}

	limit := 30
	settings := domain.DefaultSettings()
	settings.TimeLimit = &limit
	g := mustStart(t, e, settings)
	if phase, actor := e.Turn(); phase != domain.PhaseBidding || actor != g.CurrentBidderID {
		t.Fatalf("bidding Turn() = %s, %q, want %q", phase, actor, g.CurrentBidderID)
	}

	got := e.Settings()
	*got.TimeLimit = 99
	if *e.Settings().TimeLimit != 30 {
		t.Fatalf("Settings() leaked its time limit pointer")
	}
}
