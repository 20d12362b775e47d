package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"judgement/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "judgement_stats"
	statsKey        = "lifetime_v1"
)

// NakamaStatsAdapter keeps per-user lifetime stats in Nakama storage.
type NakamaStatsAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk runtime.NakamaModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

func statsWrite(userID string, stats ports.PlayerStats, version string) (*runtime.StorageWrite, error) {
	value, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return &runtime.StorageWrite{
		Collection:      statsCollection,
		Key:             statsKey,
		UserID:          userID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}, nil
}

// InitStats writes an empty record only if none exists.
func (a *NakamaStatsAdapter) InitStats(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	write, err := statsWrite(userID, ports.PlayerStats{}, "*")
	if err != nil {
		return false, err
	}
	if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to init stats: %w", err)
	}
	return true, nil
}

// RecordResults reads each user's record, folds the result in, and writes it back
// guarded by the version it read.
func (a *NakamaStatsAdapter) RecordResults(ctx context.Context, results []ports.GameResult) error {
	for _, r := range results {
		if err := a.recordOne(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (a *NakamaStatsAdapter) recordOne(ctx context.Context, r ports.GameResult) error {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     r.UserID,
	}})
	if err != nil {
		return fmt.Errorf("failed to read stats for user %s: %w", r.UserID, err)
	}

	var stats ports.PlayerStats
	version := "*"
	if len(objects) > 0 {
		if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
			return fmt.Errorf("failed to unmarshal stats for user %s: %w", r.UserID, err)
		}
		version = objects[0].Version
	}

	stats.GamesPlayed++
	if r.Won {
		stats.GamesWon++
	}
	stats.RoundsPlayed += r.RoundsPlayed
	stats.BidsMade += r.BidsMade
	if stats.GamesPlayed == 1 || r.TotalScore > stats.BestScore {
		stats.BestScore = r.TotalScore
	}

	write, err := statsWrite(r.UserID, stats, version)
	if err != nil {
		return err
	}
	if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
		return fmt.Errorf("failed to write stats for user %s: %w", r.UserID, err)
	}
	return nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
