package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"judgement/internal/domain"
)

// GameConfig holds server-side tuning for Judgement matches.
type GameConfig struct {
	// DefaultSettings are applied to fields the host leaves out of a start request.
	DefaultSettings domain.GameSettings `json:"default_settings"`
	MaxSeats        int                 `json:"max_seats"`
	TickRate        int                 `json:"tick_rate"`
	// TrickPauseSeconds is how long a finished trick stays on the table before the next lead.
	TrickPauseSeconds int `json:"trick_pause_seconds"`
	// ScoreboardPauseSeconds is how long the scoreboard shows between rounds.
	ScoreboardPauseSeconds int `json:"scoreboard_pause_seconds"`

	BotsEnabled        bool `json:"bots_enabled"`
	BotMinDelaySeconds int  `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds int  `json:"bot_max_delay_seconds"`

	// BotAutoFillDelaySeconds configures how many seconds to wait before filling a solo human lobby with bots.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotAutoFillSeats        int    `json:"bot_auto_fill_seats"`
	BotLevel                string `json:"bot_level"`

	LeaderboardID string `json:"leaderboard_id"`
}

// Defaults returns the configuration used when no file is available.
func Defaults() GameConfig {
	return GameConfig{
		DefaultSettings:         domain.DefaultSettings(),
		MaxSeats:                7,
		TickRate:                1,
		TrickPauseSeconds:       2,
		ScoreboardPauseSeconds:  5,
		BotsEnabled:             false,
		BotMinDelaySeconds:      1,
		BotMaxDelaySeconds:      3,
		BotAutoFillDelaySeconds: 5,
		BotAutoFillSeats:        3,
		BotLevel:                "good",
		LeaderboardID:           "judgement_total_score",
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
// Keys missing from the file keep their default values.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c, err := Parse(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// Parse decodes a config document over the defaults and validates it.
func Parse(data []byte) (GameConfig, error) {
	c := Defaults()
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

// Validate checks ranges the match handler relies on.
func (c GameConfig) Validate() error {
	if c.MaxSeats < 3 || c.MaxSeats > 7 {
		return fmt.Errorf("max_seats must be between 3 and 7, got %d", c.MaxSeats)
	}
	if c.TickRate < 1 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.TickRate)
	}
	if c.BotMinDelaySeconds < 0 || c.BotMaxDelaySeconds < c.BotMinDelaySeconds {
		return fmt.Errorf("bot delay range [%d, %d] is invalid", c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
	if err := c.DefaultSettings.Validate(); err != nil {
		return fmt.Errorf("default_settings: %w", err)
	}
	return nil
}

// GetGameConfig returns the global game configuration, or the defaults when none was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		d := Defaults()
		return &d
	}
	return cfg
}
