package app

import "judgement/internal/domain"

// EventKind identifies emitted game events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventRoundStarted   EventKind = "round_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventTrumpRevealed  EventKind = "trump_revealed"
	EventBiddingStarted EventKind = "bidding_started"
	EventBidPlaced      EventKind = "bid_placed"
	EventCardPlayed     EventKind = "card_played"
	EventTrickCompleted EventKind = "trick_completed"
	EventRoundCompleted EventKind = "round_completed"
	EventGameEnded      EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	GameID      string
	HostID      string
	TotalRounds int
	MaxRound    int
	Settings    domain.GameSettings
}

type RoundStartedPayload struct {
	RoundNumber    int
	CardsPerPlayer int
	TotalRounds    int
	DealerID       string
}

type HandDealtPayload struct {
	UserID string
	Hand   []domain.Card
}

type TrumpRevealedPayload struct {
	TrumpCard *domain.Card
	TrumpSuit domain.Suit
	IsNoTrump bool
}

type BiddingStartedPayload struct {
	DealerID        string
	CurrentBidderID string
	BiddingOrder    []string
}

type BidPlacedPayload struct {
	PlayerID      string
	PlayerName    string
	Bid           int
	TotalBids     int
	NextBidderID  string
	AllBidsPlaced bool
}

type CardPlayedPayload struct {
	PlayerID     string
	PlayerName   string
	Card         domain.Card
	TrickNumber  int
	NextPlayerID string
}

type TrickCompletedPayload struct {
	WinnerID   string
	WinnerName string
	Trick      domain.Trick
}

type RoundCompletedPayload struct {
	Result domain.RoundResult
}

// Standing is one line of the final table.
type Standing struct {
	PlayerID   string
	PlayerName string
	TotalScore int
}

type GameEndedPayload struct {
	Winners        []Standing
	FinalStandings []Standing
}

func standingsOf(players []*domain.Player) []Standing {
	out := make([]Standing, len(players))
	for i, p := range players {
		out[i] = Standing{PlayerID: p.ID, PlayerName: p.Name, TotalScore: p.TotalScore}
	}
	return out
}
