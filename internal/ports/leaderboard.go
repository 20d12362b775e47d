package ports

import "context"

// ScoreRecord is one player's final total submitted at game end.
type ScoreRecord struct {
	UserID   string
	Username string
	Score    int64
	Subscore int64 // bids made across the game
	Metadata map[string]interface{}
}

// LeaderboardPort defines the interface for recording final game totals.
type LeaderboardPort interface {
	// SubmitScores writes one record per entry. Callers filter out bots.
	SubmitScores(ctx context.Context, records []ScoreRecord) error
}
