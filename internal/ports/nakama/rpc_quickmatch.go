package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"judgement/internal/config"
	"judgement/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcGetRules, rpcGetRules)
}

// quickMatchQuery finds lobbies of our game with at least one open seat.
func quickMatchQuery() string {
	return fmt.Sprintf("+label.%s:>=1 +label.game:%s +label.phase:%s", MatchLabelKey_OpenSeats, domain.GameName, domain.PhaseLobby)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := config.GetGameConfig().MaxSeats - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery())
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", runtime.NewError("failed to list matches", grpcInternal)
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Info("rpcQuickMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		// Seat and owner assignment happen in MatchJoin.
		matchID, err := nk.MatchCreate(ctx, MatchNameJudgement, map[string]interface{}{})
		if err != nil {
			logger.Error("rpcQuickMatch [User:%s]: MatchCreate error: %v", userID, err)
			return "", runtime.NewError("failed to create match", grpcInternal)
		}
		resp = QuickMatchResponse{MatchID: matchID, IsNew: true}
		logger.Info("rpcQuickMatch [User:%s]: Created new match %s", userID, matchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", grpcInternal)
	}
	return string(b), nil
}
