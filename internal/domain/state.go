package domain

import "fmt"

// Phase represents the lifecycle stage of a Judgement game.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseRoundStart   Phase = "round_start"
	PhaseDealing      Phase = "dealing"
	PhaseTrumpReveal  Phase = "trump_reveal"
	PhaseBidding      Phase = "bidding"
	PhasePlaying      Phase = "playing"
	PhaseTrickResult  Phase = "trick_result"
	PhaseRoundScoring Phase = "round_scoring"
	PhaseScoreboard   Phase = "scoreboard"
	PhaseGameEnd      Phase = "game_end"
)

// RoundType selects the round sequence shape.
type RoundType string

const (
	RoundTypeAscending RoundType = "ascending"
	RoundTypeFull      RoundType = "full"
)

// ScoringVariant selects how bids are scored.
type ScoringVariant string

const (
	ScoringStandard ScoringVariant = "standard"
	ScoringSimple   ScoringVariant = "simple"
	ScoringNilBonus ScoringVariant = "nilBonus"
)

// MinTimeLimitSeconds is the shortest per-turn time limit accepted.
const MinTimeLimitSeconds = 10

// Player holds the per-game state for one seat.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Hand       []Card `json:"hand"`
	Bid        *int   `json:"bid"` // nil until placed
	TricksWon  int    `json:"tricksWon"`
	RoundScore int    `json:"roundScore"`
	TotalScore int    `json:"totalScore"`
	IsHost     bool   `json:"isHost"`
}

// HasBid reports whether the player has placed a bid this round.
func (p *Player) HasBid() bool {
	return p.Bid != nil
}

// BidValue returns the placed bid or 0 when unset.
func (p *Player) BidValue() int {
	if p.Bid == nil {
		return 0
	}
	return *p.Bid
}

// PlayedCard is a card on the table together with who played it.
type PlayedCard struct {
	Card       Card   `json:"card"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// Trick is one lap of cards around the table.
type Trick struct {
	Number       int          `json:"number"`
	LeadPlayerID string       `json:"leadPlayerId"`
	LedSuit      Suit         `json:"ledSuit"` // empty until the first card
	CardsPlayed  []PlayedCard `json:"cardsPlayed"`
	WinnerID     string       `json:"winnerId"` // empty until resolved
}

// RoundConfig describes the hand size of a single round.
type RoundConfig struct {
	Number         int  `json:"number"`
	CardsPerPlayer int  `json:"cardsPerPlayer"`
	IsAscending    bool `json:"isAscending"`
	MaxRound       int  `json:"maxRound"`
}

// PlayerRoundResult is one player's line in a round summary.
type PlayerRoundResult struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	Bid          int    `json:"bid"`
	TricksWon    int    `json:"tricksWon"`
	PointsEarned int    `json:"pointsEarned"`
	MadeBid      bool   `json:"madeBid"`
}

// RoundResult is appended to the history when a round is scored.
type RoundResult struct {
	RoundNumber    int                 `json:"roundNumber"`
	CardsPerPlayer int                 `json:"cardsPerPlayer"`
	TrumpSuit      Suit                `json:"trumpSuit"`
	PlayerResults  []PlayerRoundResult `json:"playerResults"`
}

// GameSettings are chosen by the host when starting a game.
type GameSettings struct {
	// MaxRounds is informational; the round count comes from the sequence.
	MaxRounds            int            `json:"maxRounds"`
	RoundType            RoundType      `json:"roundType"`
	ScoringVariant       ScoringVariant `json:"scoringVariant"`
	DealerBidRestriction bool           `json:"dealerBidRestriction"`
	TimeLimit            *int           `json:"timeLimit"` // seconds per turn, nil for none
	AutoAdvance          bool           `json:"autoAdvance"`
}

// DefaultSettings returns the settings used when the host does not provide any.
func DefaultSettings() GameSettings {
	return GameSettings{
		MaxRounds:            10,
		RoundType:            RoundTypeAscending,
		ScoringVariant:       ScoringStandard,
		DealerBidRestriction: true,
		AutoAdvance:          true,
	}
}

// Validate checks the settings for values the engine cannot run with.
func (s GameSettings) Validate() error {
	if s.MaxRounds < 1 {
		return fmt.Errorf("%w: must have at least 1 round", ErrInvalidSetting)
	}
	if s.TimeLimit != nil && *s.TimeLimit < MinTimeLimitSeconds {
		return fmt.Errorf("%w: time limit must be at least %d seconds", ErrInvalidSetting, MinTimeLimitSeconds)
	}
	switch s.RoundType {
	case RoundTypeAscending, RoundTypeFull:
	default:
		return fmt.Errorf("%w: unknown round type %q", ErrInvalidSetting, s.RoundType)
	}
	return nil
}

// GameState is the aggregate owned by a single engine.
type GameState struct {
	GameID string `json:"gameId"`
	HostID string `json:"hostId"`
	Phase  Phase  `json:"phase"`

	Players []*Player `json:"players"` // seat order

	RoundConfig  RoundConfig `json:"roundConfig"`
	CurrentRound int         `json:"currentRound"`
	TotalRounds  int         `json:"totalRounds"`
	DealerID     string      `json:"dealerId"`

	TrumpSuit Suit  `json:"trumpSuit"`
	TrumpCard *Card `json:"trumpCard"`
	IsNoTrump bool  `json:"isNoTrump"`

	BiddingOrder    []string `json:"biddingOrder"`
	CurrentBidderID string   `json:"currentBidderId"`
	AllBidsPlaced   bool     `json:"allBidsPlaced"`
	TotalBids       int      `json:"totalBids"`

	CurrentTrick    *Trick   `json:"currentTrick"`
	Tricks          []Trick  `json:"tricks"`
	CurrentPlayerID string   `json:"currentPlayerId"`
	PlayOrder       []string `json:"playOrder"`

	Deck      []Card `json:"-"`
	StockPile []Card `json:"-"`

	RoundHistory []RoundResult `json:"roundHistory"`
	Settings     GameSettings  `json:"settings"`
}

// PlayerByID returns the player with id or nil.
func (g *GameState) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SeatOf returns the seat index of a player or -1.
func (g *GameState) SeatOf(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers never share slices with the engine.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	out := *g

	out.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		cp.Hand = append([]Card(nil), p.Hand...)
		if p.Bid != nil {
			b := *p.Bid
			cp.Bid = &b
		}
		out.Players[i] = &cp
	}

	if g.TrumpCard != nil {
		tc := *g.TrumpCard
		out.TrumpCard = &tc
	}
	if g.CurrentTrick != nil {
		t := cloneTrick(*g.CurrentTrick)
		out.CurrentTrick = &t
	}
	out.Tricks = make([]Trick, len(g.Tricks))
	for i, t := range g.Tricks {
		out.Tricks[i] = cloneTrick(t)
	}

	out.BiddingOrder = append([]string(nil), g.BiddingOrder...)
	out.PlayOrder = append([]string(nil), g.PlayOrder...)
	out.Deck = append([]Card(nil), g.Deck...)
	out.StockPile = append([]Card(nil), g.StockPile...)

	out.RoundHistory = make([]RoundResult, len(g.RoundHistory))
	for i, r := range g.RoundHistory {
		r.PlayerResults = append([]PlayerRoundResult(nil), r.PlayerResults...)
		out.RoundHistory[i] = r
	}
	if g.Settings.TimeLimit != nil {
		tl := *g.Settings.TimeLimit
		out.Settings.TimeLimit = &tl
	}
	return &out
}

func cloneTrick(t Trick) Trick {
	t.CardsPlayed = append([]PlayedCard(nil), t.CardsPlayed...)
	return t
}
