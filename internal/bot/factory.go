package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"judgement/internal/bot/brain"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelGood
	BotLevelSmart
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelEasy:
		return "easy"
	case BotLevelGood:
		return "good"
	case BotLevelSmart:
		return "smart"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a config or identity difficulty onto a level.
func ParseLevel(s string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return BotLevelEasy, nil
	case "good", "medium":
		return BotLevelGood, nil
	case "smart", "hard":
		return BotLevelSmart, nil
	}
	return BotLevelEasy, fmt.Errorf("unknown bot level: %q", s)
}

// NewBrain creates a new AI brain based on the specified level.
// rng may be nil to use a time-seeded default.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	switch level {
	case BotLevelEasy:
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		return &RandomBot{rng: rng}, nil
	case BotLevelGood:
		return &GoodBot{}, nil
	case BotLevelSmart:
		return &SmartBot{Memory: brain.NewMemory()}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// NewAgent builds an agent for a pool bot, using its identity difficulty.
// fallback is used when the identity is unknown or its difficulty does not parse.
func NewAgent(userID string, fallback BotLevel, rng *rand.Rand) (*Agent, error) {
	level := fallback
	name := GetBotDisplayName(userID)
	if identity, ok := GetBotConfig(userID); ok {
		if l, err := ParseLevel(identity.Difficulty); err == nil {
			level = l
		}
	}
	if name == "" {
		name = userID
	}
	strategy, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: userID, Name: name, Level: level, Strategy: strategy}, nil
}
