package nakama

import (
	"context"
	"database/sql"

	"judgement/internal/bot"
	"judgement/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	gameConfigPath    = "data/game_config.json"
	botIdentitiesPath = "data/bot_identities.json"
)

// InitModule wires RPCs, hooks and the match handler into the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Using default game config: %v", err)
	}
	cfg := config.GetGameConfig()

	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else {
		bot.ProvisionBots(ctx, nk, logger)
	}

	if err := NewNakamaLeaderboardAdapter(nk, cfg.LeaderboardID).EnsureLeaderboard(ctx); err != nil {
		logger.Error("InitModule: %v", err)
		return err
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}
	if err := initializer.RegisterMatch(MatchNameJudgement, NewMatch); err != nil {
		return err
	}

	logger.Info("Judgement Go module loaded (max seats %d, bots enabled %t).", cfg.MaxSeats, cfg.BotsEnabled)
	return nil
}
