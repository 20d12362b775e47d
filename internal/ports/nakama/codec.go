package nakama

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"judgement/internal/app"
	"judgement/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeMessage marshals a payload tree as protojson. Values must be JSON-like:
// scalars, []interface{} and map[string]interface{}.
func encodeMessage(m map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}
	return protojson.Marshal(s)
}

// decodeMessage parses a client payload. An empty payload decodes to an empty struct.
func decodeMessage(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return s, nil
}

func encodeLabel(l domain.LabelPayload) (string, error) {
	b, err := encodeMessage(map[string]interface{}{
		"open":    l.Open,
		"game":    l.Game,
		"phase":   l.Phase,
		"players": l.Players,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeSettings reads the optional "settings" object over defaults.
func decodeSettings(s *structpb.Struct, defaults domain.GameSettings) (domain.GameSettings, error) {
	settings := defaults
	v, ok := s.GetFields()["settings"]
	if !ok {
		return settings, nil
	}
	if v.GetStructValue() == nil {
		return settings, fmt.Errorf("settings must be an object")
	}
	raw, err := protojson.Marshal(v)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return defaults, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

func decodeInt(s *structpb.Struct, key string) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}

func decodeString(s *structpb.Struct, key string) (string, error) {
	v := s.GetFields()[key].GetStringValue()
	if v == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return v, nil
}

func cardValue(c domain.Card) map[string]interface{} {
	return map[string]interface{}{"suit": string(c.Suit), "rank": string(c.Rank), "id": c.ID}
}

func cardsValue(cards []domain.Card) []interface{} {
	out := make([]interface{}, len(cards))
	for i, c := range cards {
		out[i] = cardValue(c)
	}
	return out
}

func stringsValue(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func optionalCard(c *domain.Card) interface{} {
	if c == nil {
		return nil
	}
	return cardValue(*c)
}

func optionalInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func settingsValue(s domain.GameSettings) map[string]interface{} {
	return map[string]interface{}{
		"maxRounds":            s.MaxRounds,
		"roundType":            string(s.RoundType),
		"scoringVariant":       string(s.ScoringVariant),
		"dealerBidRestriction": s.DealerBidRestriction,
		"timeLimit":            optionalInt(s.TimeLimit),
		"autoAdvance":          s.AutoAdvance,
	}
}

func trickValue(t domain.Trick) map[string]interface{} {
	played := make([]interface{}, len(t.CardsPlayed))
	for i, pc := range t.CardsPlayed {
		played[i] = map[string]interface{}{
			"card":       cardValue(pc.Card),
			"playerId":   pc.PlayerID,
			"playerName": pc.PlayerName,
		}
	}
	return map[string]interface{}{
		"number":       t.Number,
		"leadPlayerId": t.LeadPlayerID,
		"ledSuit":      string(t.LedSuit),
		"cardsPlayed":  played,
		"winnerId":     t.WinnerID,
	}
}

func roundResultValue(r domain.RoundResult) map[string]interface{} {
	results := make([]interface{}, len(r.PlayerResults))
	for i, pr := range r.PlayerResults {
		results[i] = map[string]interface{}{
			"playerId":     pr.PlayerID,
			"playerName":   pr.PlayerName,
			"bid":          pr.Bid,
			"tricksWon":    pr.TricksWon,
			"pointsEarned": pr.PointsEarned,
			"madeBid":      pr.MadeBid,
		}
	}
	return map[string]interface{}{
		"roundNumber":    r.RoundNumber,
		"cardsPerPlayer": r.CardsPerPlayer,
		"trumpSuit":      string(r.TrumpSuit),
		"playerResults":  results,
	}
}

func standingsValue(standings []app.Standing) []interface{} {
	out := make([]interface{}, len(standings))
	for i, s := range standings {
		out[i] = map[string]interface{}{
			"playerId":   s.PlayerID,
			"playerName": s.PlayerName,
			"totalScore": s.TotalScore,
		}
	}
	return out
}

// eventMessage maps an engine event onto its opcode and wire payload.
func eventMessage(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		return OpGameStarted, map[string]interface{}{
			"gameId":      p.GameID,
			"hostId":      p.HostID,
			"totalRounds": p.TotalRounds,
			"maxRound":    p.MaxRound,
			"settings":    settingsValue(p.Settings),
		}, nil
	case app.RoundStartedPayload:
		return OpRoundStarted, map[string]interface{}{
			"roundNumber":    p.RoundNumber,
			"cardsPerPlayer": p.CardsPerPlayer,
			"totalRounds":    p.TotalRounds,
			"dealerId":       p.DealerID,
		}, nil
	case app.HandDealtPayload:
		return OpHandDealt, map[string]interface{}{
			"userId": p.UserID,
			"hand":   cardsValue(p.Hand),
		}, nil
	case app.TrumpRevealedPayload:
		return OpTrumpRevealed, map[string]interface{}{
			"trumpCard": optionalCard(p.TrumpCard),
			"trumpSuit": string(p.TrumpSuit),
			"isNoTrump": p.IsNoTrump,
		}, nil
	case app.BiddingStartedPayload:
		return OpBiddingStarted, map[string]interface{}{
			"dealerId":        p.DealerID,
			"currentBidderId": p.CurrentBidderID,
			"biddingOrder":    stringsValue(p.BiddingOrder),
		}, nil
	case app.BidPlacedPayload:
		return OpBidPlaced, map[string]interface{}{
			"playerId":      p.PlayerID,
			"playerName":    p.PlayerName,
			"bid":           p.Bid,
			"totalBids":     p.TotalBids,
			"nextBidderId":  p.NextBidderID,
			"allBidsPlaced": p.AllBidsPlaced,
		}, nil
	case app.CardPlayedPayload:
		return OpCardPlayed, map[string]interface{}{
			"playerId":     p.PlayerID,
			"playerName":   p.PlayerName,
			"card":         cardValue(p.Card),
			"trickNumber":  p.TrickNumber,
			"nextPlayerId": p.NextPlayerID,
		}, nil
	case app.TrickCompletedPayload:
		return OpTrickCompleted, map[string]interface{}{
			"winnerId":   p.WinnerID,
			"winnerName": p.WinnerName,
			"trick":      trickValue(p.Trick),
		}, nil
	case app.RoundCompletedPayload:
		return OpRoundCompleted, map[string]interface{}{
			"result": roundResultValue(p.Result),
		}, nil
	case app.GameEndedPayload:
		return OpGameEnded, map[string]interface{}{
			"winners":        standingsValue(p.Winners),
			"finalStandings": standingsValue(p.FinalStandings),
		}, nil
	}
	return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
}

// gameStateView renders the snapshot for one viewer. Only the viewer's own hand is revealed;
// everyone else shows a card count.
func gameStateView(g *domain.GameState, viewerID string) map[string]interface{} {
	players := make([]interface{}, len(g.Players))
	for i, p := range g.Players {
		entry := map[string]interface{}{
			"id":         p.ID,
			"name":       p.Name,
			"handCount":  len(p.Hand),
			"bid":        optionalInt(p.Bid),
			"tricksWon":  p.TricksWon,
			"roundScore": p.RoundScore,
			"totalScore": p.TotalScore,
			"isHost":     p.IsHost,
		}
		if p.ID == viewerID {
			entry["hand"] = cardsValue(p.Hand)
		}
		players[i] = entry
	}

	tricks := make([]interface{}, len(g.Tricks))
	for i, t := range g.Tricks {
		tricks[i] = trickValue(t)
	}
	var current interface{}
	if g.CurrentTrick != nil {
		current = trickValue(*g.CurrentTrick)
	}

	history := make([]interface{}, len(g.RoundHistory))
	for i, r := range g.RoundHistory {
		history[i] = roundResultValue(r)
	}

	return map[string]interface{}{
		"gameId":  g.GameID,
		"hostId":  g.HostID,
		"phase":   string(g.Phase),
		"players": players,
		"roundConfig": map[string]interface{}{
			"number":         g.RoundConfig.Number,
			"cardsPerPlayer": g.RoundConfig.CardsPerPlayer,
			"isAscending":    g.RoundConfig.IsAscending,
			"maxRound":       g.RoundConfig.MaxRound,
		},
		"currentRound":    g.CurrentRound,
		"totalRounds":     g.TotalRounds,
		"dealerId":        g.DealerID,
		"trumpSuit":       string(g.TrumpSuit),
		"trumpCard":       optionalCard(g.TrumpCard),
		"isNoTrump":       g.IsNoTrump,
		"biddingOrder":    stringsValue(g.BiddingOrder),
		"currentBidderId": g.CurrentBidderID,
		"allBidsPlaced":   g.AllBidsPlaced,
		"totalBids":       g.TotalBids,
		"currentTrick":    current,
		"tricks":          tricks,
		"currentPlayerId": g.CurrentPlayerID,
		"playOrder":       stringsValue(g.PlayOrder),
		"roundHistory":    history,
		"settings":        settingsValue(g.Settings),
	}
}
