// Command simulate plays bot-only Judgement games on the engine and reports how each seat fared.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"judgement/internal/app"
	"judgement/internal/bot"
	"judgement/internal/domain"
	"judgement/internal/simstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	games     int
	players   int
	roundType string
	scoring   string
	levels    string
	seed      int64
	dbDSN     string
	debug     bool
)

func init() {
	flag.IntVar(&games, "games", 100, "Number of games to play")
	flag.IntVar(&players, "players", 4, "Players per table (3-7)")
	flag.StringVar(&roundType, "round-type", string(domain.RoundTypeAscending), "Round sequence (ascending, full)")
	flag.StringVar(&scoring, "scoring", string(domain.ScoringStandard), "Scoring variant (standard, simple, nilBonus)")
	flag.StringVar(&levels, "level", "good", "Bot levels, comma separated and assigned to seats in turn (easy, good, smart)")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = use current time)")
	flag.StringVar(&dbDSN, "db", "", "Save per-game results to a SQLite file or postgres:// DSN")
	flag.BoolVar(&debug, "debug", false, "Log every round")
}

// seatSummary accumulates one seat's results over all games.
type seatSummary struct {
	Level      bot.BotLevel
	Wins       int
	TotalScore int
	BidsMade   int
	Rounds     int
}

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	seatLevels, err := parseLevels(levels, players)
	if err != nil {
		logger.Fatal("invalid -level", zap.Error(err))
	}
	settings := domain.DefaultSettings()
	settings.RoundType = domain.RoundType(roundType)
	settings.ScoringVariant = domain.ScoringVariant(scoring)
	settings.AutoAdvance = true
	if err := settings.Validate(); err != nil {
		logger.Fatal("invalid settings", zap.Error(err))
	}

	logger.Info("starting simulation",
		zap.Int("games", games),
		zap.Int("players", players),
		zap.String("round_type", roundType),
		zap.String("scoring", scoring),
		zap.Int64("seed", seed),
	)

	var onGame func(int, *domain.GameState) error
	runID := uuid.NewString()
	var store *simstore.Store
	if dbDSN != "" {
		store, err = simstore.Open(dbDSN)
		if err != nil {
			logger.Fatal("failed to open results store", zap.Error(err))
		}
		defer store.Close()
		names := make([]string, len(seatLevels))
		for i, l := range seatLevels {
			names[i] = l.String()
		}
		onGame = func(g int, final *domain.GameState) error {
			return store.SaveGame(context.Background(), simstore.RowsFor(runID, g, final, names))
		}
		logger.Info("recording results", zap.String("run_id", runID))
	}

	summary, err := simulate(logger, rand.New(rand.NewSource(seed)), games, seatLevels, settings, onGame)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	for i, s := range summary {
		logger.Info("seat result",
			zap.Int("seat", i),
			zap.Stringer("level", s.Level),
			zap.Int("wins", s.Wins),
			zap.Float64("win_rate", float64(s.Wins)/float64(games)),
			zap.Float64("avg_total", float64(s.TotalScore)/float64(games)),
			zap.Float64("bid_rate", float64(s.BidsMade)/float64(max(s.Rounds, 1))),
		)
	}

	if store != nil {
		totals, err := store.Totals(context.Background(), runID)
		if err != nil {
			logger.Error("failed to read back run totals", zap.Error(err))
			return
		}
		logger.Info("stored run", zap.String("run_id", runID), zap.Int("seats", len(totals)))
	}
}

func parseLevels(list string, seats int) ([]bot.BotLevel, error) {
	if seats < app.MinPlayersToStartGame || seats > app.MaxPlayers {
		return nil, fmt.Errorf("players must be between %d and %d", app.MinPlayersToStartGame, app.MaxPlayers)
	}
	var parsed []bot.BotLevel
	for _, s := range strings.Split(list, ",") {
		l, err := bot.ParseLevel(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, l)
	}
	out := make([]bot.BotLevel, seats)
	for i := range out {
		out[i] = parsed[i%len(parsed)]
	}
	return out, nil
}

// simulate plays n games with one agent per seat. The host seat rotates between games.
// onGame, when set, sees each finished game.
func simulate(logger *zap.Logger, rng *rand.Rand, n int, seatLevels []bot.BotLevel, settings domain.GameSettings, onGame func(int, *domain.GameState) error) ([]seatSummary, error) {
	summary := make([]seatSummary, len(seatLevels))
	for i, l := range seatLevels {
		summary[i].Level = l
	}

	for g := 0; g < n; g++ {
		seats := make([]app.Seat, len(seatLevels))
		agents := make(map[string]*bot.Agent, len(seatLevels))
		for i, l := range seatLevels {
			id := fmt.Sprintf("seat-%d", i)
			brain, err := bot.NewBrain(l, rng)
			if err != nil {
				return nil, err
			}
			seats[i] = app.Seat{UserID: id, Name: id}
			agents[id] = &bot.Agent{ID: id, Name: id, Level: l, Strategy: brain}
		}

		engine := app.NewEngine(seats, seats[g%len(seats)].UserID, rng)
		final, err := playGame(logger, engine, agents, settings)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", g, err)
		}

		for _, w := range domain.DetermineWinners(final.Players) {
			summary[final.SeatOf(w.ID)].Wins++
		}
		for i, p := range final.Players {
			summary[i].TotalScore += p.TotalScore
		}
		for _, r := range final.RoundHistory {
			for _, pr := range r.PlayerResults {
				i := final.SeatOf(pr.PlayerID)
				summary[i].Rounds++
				if pr.MadeBid {
					summary[i].BidsMade++
				}
			}
		}
		if onGame != nil {
			if err := onGame(g, final); err != nil {
				return nil, fmt.Errorf("game %d: %w", g, err)
			}
		}
		logger.Debug("game finished", zap.Int("game", g), zap.String("game_id", final.GameID))
	}
	return summary, nil
}

// playGame drives one engine to game end and returns the final state.
func playGame(logger *zap.Logger, engine *app.Engine, agents map[string]*bot.Agent, settings domain.GameSettings) (*domain.GameState, error) {
	state, events, err := engine.Start(settings)
	if err != nil {
		return nil, err
	}
	logEvents(logger, events)

	for state.Phase != domain.PhaseGameEnd {
		_, actor := engine.Turn()
		if actor == "" {
			if state, events, err = engine.Advance(); err != nil {
				return nil, err
			}
			logEvents(logger, events)
			continue
		}

		agent, ok := agents[actor]
		if !ok {
			return nil, fmt.Errorf("no agent for %s", actor)
		}
		action, err := agent.Decide(state)
		if err != nil {
			if errors.Is(err, bot.ErrNoDecision) {
				return nil, fmt.Errorf("%s has the turn but made no decision in %s", actor, state.Phase)
			}
			return nil, err
		}
		if action.IsBid {
			state, events, err = engine.PlaceBid(actor, action.Bid)
		} else {
			state, events, err = engine.PlayCard(actor, action.CardID)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", actor, err)
		}
		logEvents(logger, events)
	}
	return state, nil
}

func logEvents(logger *zap.Logger, events []app.Event) {
	for _, ev := range events {
		p, ok := ev.Payload.(app.RoundCompletedPayload)
		if !ok {
			continue
		}
		for _, pr := range p.Result.PlayerResults {
			logger.Debug("round scored",
				zap.Int("round", p.Result.RoundNumber),
				zap.Int("cards", p.Result.CardsPerPlayer),
				zap.String("trump", string(p.Result.TrumpSuit)),
				zap.String("player", pr.PlayerID),
				zap.Int("bid", pr.Bid),
				zap.Int("tricks", pr.TricksWon),
				zap.Int("points", pr.PointsEarned),
			)
		}
	}
}
