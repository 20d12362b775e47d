package ports

import "context"

// GameResult is one human player's outcome of a finished game.
type GameResult struct {
	UserID       string
	Won          bool
	BidsMade     int
	RoundsPlayed int
	TotalScore   int
}

// PlayerStats is the lifetime record kept per user.
type PlayerStats struct {
	GamesPlayed  int `json:"games_played"`
	GamesWon     int `json:"games_won"`
	RoundsPlayed int `json:"rounds_played"`
	BidsMade     int `json:"bids_made"`
	BestScore    int `json:"best_score"`
}

// StatsPort persists per-user lifetime statistics.
type StatsPort interface {
	// InitStats creates an empty record. created is false when one already exists.
	InitStats(ctx context.Context, userID string) (created bool, err error)

	// RecordResults folds finished-game outcomes into each user's record.
	RecordResults(ctx context.Context, results []GameResult) error
}
