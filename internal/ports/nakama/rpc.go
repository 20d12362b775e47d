package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"judgement/internal/app"
	"judgement/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RulesResponse describes the round sequence a table would play.
type RulesResponse struct {
	Players     int                     `json:"players"`
	RoundType   domain.RoundType        `json:"round_type"`
	MaxCards    int                     `json:"max_cards"`
	Sequence    []int                   `json:"sequence"`
	TotalRounds int                     `json:"total_rounds"`
	Scoring     []domain.ScoringVariant `json:"scoring_variants"`
}

// rulesFor validates a rules request and computes the sequence.
func rulesFor(players int, roundType domain.RoundType) (RulesResponse, error) {
	if players < app.MinPlayersToStartGame || players > app.MaxPlayers {
		return RulesResponse{}, runtime.NewError("players must be between 3 and 7", grpcInvalidArgument)
	}
	if roundType == "" {
		roundType = domain.RoundTypeAscending
	}
	if roundType != domain.RoundTypeAscending && roundType != domain.RoundTypeFull {
		return RulesResponse{}, runtime.NewError("roundType must be ascending or full", grpcInvalidArgument)
	}
	maxCards := domain.DetermineMaxCards(players)
	seq := domain.RoundSequence(maxCards, roundType)
	return RulesResponse{
		Players:     players,
		RoundType:   roundType,
		MaxCards:    maxCards,
		Sequence:    seq,
		TotalRounds: len(seq),
		Scoring:     []domain.ScoringVariant{domain.ScoringStandard, domain.ScoringSimple, domain.ScoringNilBonus},
	}, nil
}

// rpcGetRules answers {"players": N, "roundType": "ascending"|"full"}.
func rpcGetRules(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	request, err := decodeMessage([]byte(payload))
	if err != nil {
		return "", runtime.NewError(err.Error(), grpcInvalidArgument)
	}
	players, err := decodeInt(request, "players")
	if err != nil {
		return "", runtime.NewError(err.Error(), grpcInvalidArgument)
	}
	roundType := domain.RoundType(request.GetFields()["roundType"].GetStringValue())

	rules, err := rulesFor(players, roundType)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(rules)
	if err != nil {
		logger.Error("rpcGetRules: Failed to encode response: %v", err)
		return "", runtime.NewError("failed to encode response", grpcInternal)
	}
	return string(b), nil
}
