package app

import (
	"fmt"
	"math/rand"

	"judgement/internal/domain"
)

// transition is a single command's working copy of the game plus the events it produced.
type transition struct {
	g      *domain.GameState
	rng    *rand.Rand
	events []Event
}

func (tx *transition) emit(kind EventKind, payload any, recipients ...string) {
	tx.events = append(tx.events, Event{Kind: kind, Payload: payload, Recipients: recipients})
}

func (tx *transition) playerIDs() []string {
	ids := make([]string, len(tx.g.Players))
	for i, p := range tx.g.Players {
		ids[i] = p.ID
	}
	return ids
}

// startRound runs round_start, dealing and trump_reveal, leaving the game in bidding.
func (tx *transition) startRound() error {
	g := tx.g
	g.Phase = domain.PhaseRoundStart
	g.CurrentRound++

	maxRound := domain.DetermineMaxCards(len(g.Players))
	seq := domain.RoundSequence(maxRound, g.Settings.RoundType)
	cfg, ok := domain.RoundConfigFor(g.CurrentRound, seq, maxRound)
	if !ok {
		return fmt.Errorf("%w: round %d of %d", domain.ErrInvalidRound, g.CurrentRound, len(seq))
	}
	g.RoundConfig = cfg

	for _, p := range g.Players {
		p.Hand = []domain.Card{}
		p.Bid = nil
		p.TricksWon = 0
		p.RoundScore = 0
	}
	g.Tricks = []domain.Trick{}
	g.CurrentTrick = nil
	g.CurrentPlayerID = ""
	g.PlayOrder = nil

	tx.emit(EventRoundStarted, RoundStartedPayload{
		RoundNumber:    cfg.Number,
		CardsPerPlayer: cfg.CardsPerPlayer,
		TotalRounds:    g.TotalRounds,
		DealerID:       g.DealerID,
	})

	if err := tx.deal(); err != nil {
		return err
	}
	tx.revealTrump()
	return tx.beginBidding()
}

func (tx *transition) deal() error {
	g := tx.g
	g.Phase = domain.PhaseDealing

	deck := domain.ShuffleDeck(domain.NewDeck(), tx.rng)
	hands, stock, err := domain.DealCards(deck, len(g.Players), g.RoundConfig.CardsPerPlayer)
	if err != nil {
		return errInvalidState("deal round %d: %v", g.CurrentRound, err)
	}
	g.Deck = deck
	g.StockPile = stock

	for i, p := range g.Players {
		p.Hand = domain.SortHand(hands[i])
		tx.emit(EventHandDealt, HandDealtPayload{
			UserID: p.ID,
			Hand:   append([]domain.Card(nil), p.Hand...),
		}, p.ID)
	}
	return nil
}

// revealTrump turns the top stock card. An empty stock means a no-trump round.
func (tx *transition) revealTrump() {
	g := tx.g
	g.Phase = domain.PhaseTrumpReveal
	if len(g.StockPile) > 0 {
		top := g.StockPile[0]
		g.TrumpCard = &top
		g.TrumpSuit = top.Suit
		g.IsNoTrump = false
	} else {
		g.TrumpCard = nil
		g.TrumpSuit = ""
		g.IsNoTrump = true
	}

	var shown *domain.Card
	if g.TrumpCard != nil {
		c := *g.TrumpCard
		shown = &c
	}
	tx.emit(EventTrumpRevealed, TrumpRevealedPayload{
		TrumpCard: shown,
		TrumpSuit: g.TrumpSuit,
		IsNoTrump: g.IsNoTrump,
	})
}

// beginBidding starts with the player left of the dealer so the dealer bids last.
func (tx *transition) beginBidding() error {
	g := tx.g
	dealerSeat := g.SeatOf(g.DealerID)
	if dealerSeat < 0 {
		return errInvalidState("dealer %s not found", g.DealerID)
	}
	g.Phase = domain.PhaseBidding
	g.BiddingOrder = domain.RotateAfter(tx.playerIDs(), dealerSeat)
	g.CurrentBidderID = g.BiddingOrder[0]
	g.AllBidsPlaced = false
	g.TotalBids = 0

	tx.emit(EventBiddingStarted, BiddingStartedPayload{
		DealerID:        g.DealerID,
		CurrentBidderID: g.CurrentBidderID,
		BiddingOrder:    append([]string(nil), g.BiddingOrder...),
	})
	return nil
}

func (tx *transition) beginPlaying() {
	g := tx.g
	g.Phase = domain.PhasePlaying
	g.PlayOrder = append([]string(nil), g.BiddingOrder...)
	tx.startTrick(g.PlayOrder[0])
}

func (tx *transition) startTrick(leaderID string) {
	g := tx.g
	g.CurrentTrick = &domain.Trick{
		Number:       len(g.Tricks) + 1,
		LeadPlayerID: leaderID,
		CardsPlayed:  []domain.PlayedCard{},
	}
	g.CurrentPlayerID = leaderID
}

func (tx *transition) resolveTrick() error {
	g := tx.g
	trick := g.CurrentTrick
	winning, err := domain.DetermineTrickWinner(trick.CardsPlayed, trick.LedSuit, g.TrumpSuit)
	if err != nil {
		return errInvalidState("resolve trick %d: %v", trick.Number, err)
	}
	winner := g.PlayerByID(winning.PlayerID)
	if winner == nil {
		return errInvalidState("trick winner %s not found", winning.PlayerID)
	}

	winner.TricksWon++
	trick.WinnerID = winner.ID
	archived := *trick
	archived.CardsPlayed = append([]domain.PlayedCard(nil), trick.CardsPlayed...)
	g.Tricks = append(g.Tricks, archived)
	g.CurrentPlayerID = ""
	g.Phase = domain.PhaseTrickResult

	tx.emit(EventTrickCompleted, TrickCompletedPayload{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Trick:      archived,
	})

	if g.Settings.AutoAdvance {
		return tx.afterTrick()
	}
	return nil
}

// afterTrick leads the next trick or scores the round once every card is out.
func (tx *transition) afterTrick() error {
	g := tx.g
	if len(g.Tricks) >= g.RoundConfig.CardsPerPlayer {
		return tx.scoreRound()
	}
	g.Phase = domain.PhasePlaying
	tx.startTrick(g.Tricks[len(g.Tricks)-1].WinnerID)
	return nil
}

func (tx *transition) scoreRound() error {
	g := tx.g
	g.Phase = domain.PhaseRoundScoring
	g.CurrentTrick = nil

	domain.UpdatePlayerScores(g.Players, g.Settings.ScoringVariant)

	result := domain.RoundResult{
		RoundNumber:    g.CurrentRound,
		CardsPerPlayer: g.RoundConfig.CardsPerPlayer,
		TrumpSuit:      g.TrumpSuit,
		PlayerResults:  make([]domain.PlayerRoundResult, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		bid := p.BidValue()
		result.PlayerResults = append(result.PlayerResults, domain.PlayerRoundResult{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			Bid:          bid,
			TricksWon:    p.TricksWon,
			PointsEarned: p.RoundScore,
			MadeBid:      domain.DidMakeBid(bid, p.TricksWon),
		})
	}
	g.RoundHistory = append(g.RoundHistory, result)

	tx.emit(EventRoundCompleted, RoundCompletedPayload{Result: result})

	if domain.IsGameEnd(g.CurrentRound+1, g.TotalRounds) {
		tx.endGame()
		return nil
	}

	dealerSeat := g.SeatOf(g.DealerID)
	if dealerSeat < 0 {
		return errInvalidState("dealer %s not found", g.DealerID)
	}
	g.DealerID = g.Players[(dealerSeat+1)%len(g.Players)].ID
	g.Phase = domain.PhaseScoreboard

	if g.Settings.AutoAdvance {
		return tx.startRound()
	}
	return nil
}

func (tx *transition) endGame() {
	g := tx.g
	g.Phase = domain.PhaseGameEnd
	g.CurrentBidderID = ""
	g.CurrentPlayerID = ""

	tx.emit(EventGameEnded, GameEndedPayload{
		Winners:        standingsOf(domain.DetermineWinners(g.Players)),
		FinalStandings: standingsOf(domain.FinalStandings(g.Players)),
	})
}
