package nakama

import (
	"context"
	"fmt"

	"judgement/internal/domain"
	"judgement/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaLeaderboardAdapter implements ports.LeaderboardPort on a single Nakama leaderboard.
type NakamaLeaderboardAdapter struct {
	nk            runtime.NakamaModule
	leaderboardID string
}

// NewNakamaLeaderboardAdapter creates a new leaderboard adapter.
func NewNakamaLeaderboardAdapter(nk runtime.NakamaModule, leaderboardID string) *NakamaLeaderboardAdapter {
	return &NakamaLeaderboardAdapter{nk: nk, leaderboardID: leaderboardID}
}

// EnsureLeaderboard creates the authoritative best-score leaderboard. Nakama ignores repeats.
func (a *NakamaLeaderboardAdapter) EnsureLeaderboard(ctx context.Context) error {
	metadata := map[string]interface{}{"game": domain.GameName}
	if err := a.nk.LeaderboardCreate(ctx, a.leaderboardID, true, "desc", "best", "", metadata, true); err != nil {
		return fmt.Errorf("failed to create leaderboard %s: %w", a.leaderboardID, err)
	}
	return nil
}

// SubmitScores writes each record, stopping at the first failure.
func (a *NakamaLeaderboardAdapter) SubmitScores(ctx context.Context, records []ports.ScoreRecord) error {
	for _, r := range records {
		if _, err := a.nk.LeaderboardRecordWrite(ctx, a.leaderboardID, r.UserID, r.Username, r.Score, r.Subscore, r.Metadata, nil); err != nil {
			return fmt.Errorf("failed to write leaderboard record for user %s: %w", r.UserID, err)
		}
	}
	return nil
}

var _ ports.LeaderboardPort = (*NakamaLeaderboardAdapter)(nil)
