package app

import (
	"fmt"
	"math/rand"
	"time"

	"judgement/internal/domain"

	"github.com/google/uuid"
)

// Seat is a roster entry handed to the engine at creation.
type Seat struct {
	UserID string
	Name   string
}

// Engine owns the state of one game and applies player commands to it.
// It is not safe for concurrent use; callers serialize commands.
type Engine struct {
	state *domain.GameState
	rng   *rand.Rand
}

// NewEngine builds a lobby-phase engine for the roster in seat order.
// rng may be nil to use a time-seeded default.
func NewEngine(seats []Seat, hostID string, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	players := make([]*domain.Player, 0, len(seats))
	for _, s := range seats {
		players = append(players, &domain.Player{
			ID:     s.UserID,
			Name:   s.Name,
			Hand:   []domain.Card{},
			IsHost: s.UserID == hostID,
		})
	}
	return &Engine{
		rng: rng,
		state: &domain.GameState{
			GameID:   uuid.NewString(),
			HostID:   hostID,
			Phase:    domain.PhaseLobby,
			Players:  players,
			Settings: domain.DefaultSettings(),
		},
	}
}

// State returns a snapshot of the game.
func (e *Engine) State() *domain.GameState {
	return e.state.Clone()
}

// Phase returns the current phase without copying the state.
func (e *Engine) Phase() domain.Phase {
	return e.state.Phase
}

// Turn returns the phase and the player expected to act, or "" when nobody is.
func (e *Engine) Turn() (domain.Phase, string) {
	switch e.state.Phase {
	case domain.PhaseBidding:
		return e.state.Phase, e.state.CurrentBidderID
	case domain.PhasePlaying:
		return e.state.Phase, e.state.CurrentPlayerID
	}
	return e.state.Phase, ""
}

// Settings returns the settings the game was started with.
func (e *Engine) Settings() domain.GameSettings {
	s := e.state.Settings
	if s.TimeLimit != nil {
		limit := *s.TimeLimit
		s.TimeLimit = &limit
	}
	return s
}

// Winners returns the players tied at the highest total score.
func (e *Engine) Winners() []*domain.Player {
	return domain.DetermineWinners(e.state.Clone().Players)
}

// FinalStandings returns the players ordered by total score.
func (e *Engine) FinalStandings() []*domain.Player {
	return domain.FinalStandings(e.state.Clone().Players)
}

// Start deals the first round and opens bidding.
func (e *Engine) Start(settings domain.GameSettings) (*domain.GameState, []Event, error) {
	return e.apply(func(tx *transition) error {
		g := tx.g
		if g.Phase != domain.PhaseLobby {
			return ErrAlreadyStarted
		}
		n := len(g.Players)
		if n < MinPlayersToStartGame {
			return ErrTooFewPlayers
		}
		if n > MaxPlayers {
			return ErrTooManyPlayers
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		if g.PlayerByID(g.HostID) == nil {
			return errInvalidState("host %s is not seated", g.HostID)
		}

		maxRound := domain.DetermineMaxCards(n)
		g.Settings = settings
		g.TotalRounds = len(domain.RoundSequence(maxRound, settings.RoundType))
		g.CurrentRound = 0
		g.DealerID = g.HostID
		g.RoundHistory = []domain.RoundResult{}
		for _, p := range g.Players {
			p.TotalScore = 0
		}

		tx.emit(EventGameStarted, GameStartedPayload{
			GameID:      g.GameID,
			HostID:      g.HostID,
			TotalRounds: g.TotalRounds,
			MaxRound:    maxRound,
			Settings:    settings,
		})
		return tx.startRound()
	})
}

// PlaceBid records a bid for the player whose turn it is.
func (e *Engine) PlaceBid(playerID string, bid int) (*domain.GameState, []Event, error) {
	return e.apply(func(tx *transition) error {
		g := tx.g
		if g.Phase == domain.PhaseGameEnd {
			return ErrGameOver
		}
		if g.Phase != domain.PhaseBidding {
			return ErrNotBidding
		}
		if g.CurrentBidderID != playerID {
			return ErrNotYourTurn
		}
		p := g.PlayerByID(playerID)
		if p == nil {
			return errInvalidState("current bidder %s not found", playerID)
		}

		cards := g.RoundConfig.CardsPerPlayer
		if bid < 0 || bid > cards {
			return fmt.Errorf("%w: bid must be between 0 and %d", ErrBidOutOfRange, cards)
		}
		if g.Settings.DealerBidRestriction && playerID == g.DealerID {
			others := 0
			for _, o := range g.Players {
				if o.ID != playerID {
					others += o.BidValue()
				}
			}
			if domain.IsIllegalDealerBid(bid, others, cards) {
				return fmt.Errorf("%w: dealer cannot bid %d (total would equal %d)", ErrIllegalDealerBid, bid, cards)
			}
		}

		b := bid
		p.Bid = &b
		g.TotalBids += bid

		idx := indexOf(g.BiddingOrder, playerID)
		if idx < 0 {
			return errInvalidState("bidder %s missing from bidding order", playerID)
		}
		last := idx == len(g.BiddingOrder)-1
		next := ""
		if !last {
			next = g.BiddingOrder[idx+1]
		}
		g.CurrentBidderID = next
		g.AllBidsPlaced = last

		tx.emit(EventBidPlaced, BidPlacedPayload{
			PlayerID:      p.ID,
			PlayerName:    p.Name,
			Bid:           bid,
			TotalBids:     g.TotalBids,
			NextBidderID:  next,
			AllBidsPlaced: last,
		})

		if last {
			tx.beginPlaying()
		}
		return nil
	})
}

// PlayCard plays cardID from the current player's hand into the trick.
func (e *Engine) PlayCard(playerID, cardID string) (*domain.GameState, []Event, error) {
	return e.apply(func(tx *transition) error {
		g := tx.g
		if g.Phase == domain.PhaseGameEnd {
			return ErrGameOver
		}
		if g.Phase != domain.PhasePlaying {
			return ErrNotPlaying
		}
		if g.CurrentPlayerID != playerID {
			return ErrNotYourTurn
		}
		p := g.PlayerByID(playerID)
		if p == nil {
			return errInvalidState("current player %s not found", playerID)
		}
		trick := g.CurrentTrick
		if trick == nil {
			return errInvalidState("no trick in progress")
		}

		card, ok := domain.FindCardByID(p.Hand, cardID)
		if !ok {
			return ErrCardNotInHand
		}
		if err := domain.CanPlayCard(card, p.Hand, trick.LedSuit); err != nil {
			return err
		}

		p.Hand = domain.RemoveCardFromHand(p.Hand, cardID)
		if trick.LedSuit == "" {
			trick.LedSuit = card.Suit
		}
		trick.CardsPlayed = append(trick.CardsPlayed, domain.PlayedCard{
			Card:       card,
			PlayerID:   p.ID,
			PlayerName: p.Name,
		})

		complete := len(trick.CardsPlayed) == len(g.Players)
		next := ""
		if !complete {
			idx := indexOf(g.PlayOrder, playerID)
			if idx < 0 {
				return errInvalidState("player %s missing from play order", playerID)
			}
			next = g.PlayOrder[(idx+1)%len(g.PlayOrder)]
		}
		g.CurrentPlayerID = next

		tx.emit(EventCardPlayed, CardPlayedPayload{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			Card:         card,
			TrickNumber:  trick.Number,
			NextPlayerID: next,
		})

		if complete {
			return tx.resolveTrick()
		}
		return nil
	})
}

// Advance steps past a paused trick_result or scoreboard phase.
// With AutoAdvance enabled the engine never pauses and Advance has nothing to do.
func (e *Engine) Advance() (*domain.GameState, []Event, error) {
	return e.apply(func(tx *transition) error {
		switch tx.g.Phase {
		case domain.PhaseTrickResult:
			return tx.afterTrick()
		case domain.PhaseScoreboard:
			return tx.startRound()
		case domain.PhaseGameEnd:
			return ErrGameOver
		default:
			return ErrNothingToAdvance
		}
	})
}

// apply runs fn against a copy of the state and commits only when fn succeeds.
func (e *Engine) apply(fn func(tx *transition) error) (*domain.GameState, []Event, error) {
	tx := &transition{g: e.state.Clone(), rng: e.rng}
	if err := fn(tx); err != nil {
		return nil, nil, err
	}
	e.state = tx.g
	return e.state.Clone(), tx.events, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
