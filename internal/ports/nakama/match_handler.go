package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"judgement/internal/app"
	"judgement/internal/bot"
	"judgement/internal/config"
	"judgement/internal/domain"
	"judgement/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seats in the match label
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     []string                    `json:"seats"`      // user IDs by seat, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // seat index of the host, -1 when no human is seated
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging
	Engine    *app.Engine                 `json:"-"` // nil while in the lobby
	Settings  domain.GameSettings         `json:"settings"`
	// Departed holds seated humans who disconnected mid-game; a stand-in agent plays for them.
	Departed map[string]bool `json:"-"`

	TickRate            int    `json:"tick_rate"`
	TrickPauseSeconds   int    `json:"trick_pause_seconds"`
	ScoreboardPauseSecs int    `json:"scoreboard_pause_seconds"`
	PauseUntil          int64  `json:"pause_until"` // tick at which a paused engine is advanced
	TurnActor           string `json:"turn_actor"`
	TurnDeadline        int64  `json:"turn_deadline"` // tick at which the current human turn is auto-played

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotAutoFillSeats     int                   `json:"bot_auto_fill_seats"`
	BotLevel             bot.BotLevel          `json:"bot_level"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`

	Leaderboard ports.LeaderboardPort `json:"-"`
	Stats       ports.StatsPort       `json:"-"`
	MatchID     string                `json:"match_id"`

	rng *rand.Rand
}

// newMatchState builds a lobby from the loaded configuration.
func newMatchState(cfg *config.GameConfig, rng *rand.Rand) *MatchState {
	level, err := bot.ParseLevel(cfg.BotLevel)
	if err != nil {
		level = bot.BotLevelGood
	}
	return &MatchState{
		Seats:               make([]string, cfg.MaxSeats),
		OwnerSeat:           -1,
		Presences:           make(map[string]runtime.Presence),
		Settings:            cfg.DefaultSettings,
		Departed:            make(map[string]bool),
		TickRate:            cfg.TickRate,
		TrickPauseSeconds:   cfg.TrickPauseSeconds,
		ScoreboardPauseSecs: cfg.ScoreboardPauseSeconds,
		BotsEnabled:         cfg.BotsEnabled,
		BotMinDelay:         cfg.BotMinDelaySeconds,
		BotMaxDelay:         cfg.BotMaxDelaySeconds,
		BotAutoFillDelay:    cfg.BotAutoFillDelaySeconds,
		BotAutoFillSeats:    cfg.BotAutoFillSeats,
		BotLevel:            level,
		Bots:                make(map[string]*bot.Agent),
		rng:                 rng,
	}
}

// applyEnv overrides bot settings from the Nakama runtime environment.
func applyEnv(state *MatchState, env map[string]string) {
	if val, ok := env["judgement_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["judgement_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["judgement_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["judgement_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotAutoFillDelay = i
		}
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
}

// ticks converts seconds to match ticks.
func (ms *MatchState) ticks(seconds int) int64 {
	rate := ms.TickRate
	if rate < 1 {
		rate = 1
	}
	return int64(seconds * rate)
}

func (ms *MatchState) GetOpenSeatsCount() int {
	return len(ms.Seats) - domain.CountOccupied(ms.Seats)
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return domain.CountOccupied(ms.Seats)
}

// GetHumanPlayerCount counts seated humans that are still connected.
func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) && !ms.Departed[seat] {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) phase() domain.Phase {
	if ms.Engine == nil {
		return domain.PhaseLobby
	}
	return ms.Engine.Phase()
}

func (ms *MatchState) displayName(userID string) string {
	if p, ok := ms.Presences[userID]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

// roster lists the occupied seats in seat order.
func (ms *MatchState) roster() []app.Seat {
	out := make([]app.Seat, 0, len(ms.Seats))
	for _, userID := range ms.Seats {
		if userID != "" {
			out = append(out, app.Seat{UserID: userID, Name: ms.displayName(userID)})
		}
	}
	return out
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// findFirstHumanSeat returns the first seat index with a connected human or -1 if none exist.
func findFirstHumanSeat(seats []string, departed map[string]bool) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) && !departed[userId] {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when no connected human is seated.
func shouldTerminateNoHumans(seats []string, departed map[string]bool) bool {
	return findFirstHumanSeat(seats, departed) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	cfg := config.GetGameConfig()
	return &matchHandler{
		leaderboard: NewNakamaLeaderboardAdapter(nk, cfg.LeaderboardID),
		stats:       NewNakamaStatsAdapter(nk),
	}, nil
}

type matchHandler struct {
	leaderboard ports.LeaderboardPort
	stats       ports.StatsPort
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	cfg := config.GetGameConfig()
	state := newMatchState(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	state.Leaderboard = mh.leaderboard
	state.Stats = mh.stats
	if id, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
		state.MatchID = id
	}
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		applyEnv(state, env)
	}

	label, err := encodeLabel(domain.ComputeLabel(state.Seats, domain.PhaseLobby))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, state.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may always reconnect.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.Engine != nil {
		return state, false, "Game in progress"
	}
	if matchState.GetOpenSeatsCount() > 0 {
		return state, true, ""
	}
	for _, seat := range matchState.Seats {
		if isBotUserId(seat) {
			return state, true, ""
		}
	}
	return state, false, "Match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	var rejoined []string
	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if matchState.seatOf(userID) >= 0 {
			if matchState.Departed[userID] {
				delete(matchState.Departed, userID)
				delete(matchState.Bots, userID)
				logger.Info("MatchJoin: User %s reconnected and takes back their seat.", userID)
			}
			rejoined = append(rejoined, userID)
			continue
		}

		if i := domain.LowestAvailableSeat(matchState.Seats); i >= 0 {
			matchState.Seats[i] = userID
			continue
		}

		assigned := false
		if matchState.Engine == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	mh.fixOwner(matchState, logger)
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	if matchState.Engine != nil {
		snapshot := matchState.Engine.State()
		for _, userID := range rejoined {
			mh.sendGameState(matchState, dispatcher, logger, snapshot, userID)
		}
	}
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		i := matchState.seatOf(userID)
		if i < 0 {
			continue
		}
		if matchState.Engine != nil {
			// The engine roster is fixed for the game; a stand-in plays the seat until the user returns.
			matchState.Departed[userID] = true
			matchState.Bots[userID] = &bot.Agent{ID: userID, Name: userID, Level: bot.BotLevelGood, Strategy: &bot.GoodBot{}}
			logger.Info("MatchLeave: User %s left mid-game, seat %d is auto-played.", userID, i)
			continue
		}
		matchState.Seats[i] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, i)
	}

	if shouldTerminateNoHumans(matchState.Seats, matchState.Departed) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.fixOwner(matchState, logger)
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// fixOwner keeps the owner seat on a connected human.
func (mh *matchHandler) fixOwner(state *MatchState, logger runtime.Logger) {
	if i := state.OwnerSeat; i >= 0 && i < len(state.Seats) {
		userID := state.Seats[i]
		if userID != "" && !isBotUserId(userID) && !state.Departed[userID] {
			return
		}
	}
	state.OwnerSeat = findFirstHumanSeat(state.Seats, state.Departed)
	if state.OwnerSeat >= 0 {
		logger.Debug("Owner set to human seat %d.", state.OwnerSeat)
	}
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlaceBid:
			mh.handlePlaceBid(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case OpRequestState:
			mh.handleRequestState(matchState, dispatcher, logger, msg)
		case OpAdvance:
			mh.handleAdvance(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processPause(ctx, matchState, dispatcher, logger)
	mh.processTurnTimer(ctx, matchState, dispatcher, logger)
	mh.processBots(ctx, matchState, dispatcher, logger)

	return matchState
}

// command is one engine call on behalf of a player.
type command func(e *app.Engine) (*domain.GameState, []app.Event, error)

// runCommand applies a command and fans out its events. Failures are reported to actorID.
func (mh *matchHandler) runCommand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, actorID string, cmd command) bool {
	if state.Engine == nil {
		mh.sendError(state, dispatcher, logger, actorID, ErrCodeBadRequest, "game not started")
		return false
	}

	snapshot, events, err := cmd(state.Engine)
	if err != nil {
		if app.IsRejection(err) {
			logger.Warn("runCommand: rejected for %s: %v", actorID, err)
			mh.sendError(state, dispatcher, logger, actorID, ErrCodeBadRequest, err.Error())
		} else {
			logger.Error("runCommand: engine failure for %s: %v", actorID, err)
			mh.sendError(state, dispatcher, logger, actorID, ErrCodeInternal, err.Error())
		}
		return false
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.afterCommand(ctx, state, dispatcher, logger, snapshot)
	return true
}

// afterCommand publishes the new snapshot and schedules whatever the phase waits on.
func (mh *matchHandler) afterCommand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snapshot *domain.GameState) {
	mh.broadcastGameState(state, dispatcher, logger, snapshot)

	state.TurnActor = ""
	state.TurnDeadline = 0
	state.BotWaitUntil = 0
	state.PauseUntil = 0

	switch snapshot.Phase {
	case domain.PhaseTrickResult:
		state.PauseUntil = state.Tick + state.ticks(state.TrickPauseSeconds)
	case domain.PhaseScoreboard:
		state.PauseUntil = state.Tick + state.ticks(state.ScoreboardPauseSecs)
	case domain.PhaseGameEnd:
		mh.finishGame(ctx, state, dispatcher, logger, snapshot)
		return
	}
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeForbidden, "only the host can start the game")
		return
	}
	if state.Engine != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, app.ErrAlreadyStarted.Error())
		return
	}

	request, err := decodeMessage(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	settings, err := decodeSettings(request, state.Settings)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}

	engine := app.NewEngine(state.roster(), senderID, state.rng)
	snapshot, events, err := engine.Start(settings)
	if err != nil {
		logger.Warn("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}

	state.Engine = engine
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.afterCommand(ctx, state, dispatcher, logger, snapshot)

	logger.Info("StartGame: Game %s started with %d players, %d rounds.", snapshot.GameID, len(snapshot.Players), snapshot.TotalRounds)
}

func (mh *matchHandler) handlePlaceBid(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	request, err := decodeMessage(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	bid, err := decodeInt(request, "bid")
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	mh.runCommand(ctx, state, dispatcher, logger, senderID, func(e *app.Engine) (*domain.GameState, []app.Event, error) {
		return e.PlaceBid(senderID, bid)
	})
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	request, err := decodeMessage(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	cardID, err := decodeString(request, "cardId")
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	mh.runCommand(ctx, state, dispatcher, logger, senderID, func(e *app.Engine) (*domain.GameState, []app.Event, error) {
		return e.PlayCard(senderID, cardID)
	})
}

// handleAdvance lets the host skip a trick or scoreboard pause.
func (mh *matchHandler) handleAdvance(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if s := state.seatOf(senderID); s < 0 || s != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeForbidden, "only the host can advance the game")
		return
	}
	mh.runCommand(ctx, state, dispatcher, logger, senderID, (*app.Engine).Advance)
}

func (mh *matchHandler) handleRequestState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	presence, ok := state.Presences[senderID]
	if !ok {
		return
	}
	mh.sendMatchState(state, dispatcher, logger, []runtime.Presence{presence})
	if state.Engine != nil {
		mh.sendGameState(state, dispatcher, logger, state.Engine.State(), senderID)
	}
}

// processPause steps a paused engine once its pause has elapsed.
func (mh *matchHandler) processPause(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Engine == nil || state.PauseUntil == 0 || state.Tick < state.PauseUntil {
		return
	}
	switch state.Engine.Phase() {
	case domain.PhaseTrickResult, domain.PhaseScoreboard:
		mh.runCommand(ctx, state, dispatcher, logger, "", (*app.Engine).Advance)
	default:
		state.PauseUntil = 0
	}
}

// processTurnTimer auto-plays a connected human who runs out the turn time limit.
func (mh *matchHandler) processTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Engine == nil {
		return
	}
	limit := state.Engine.Settings().TimeLimit
	_, actor := state.Engine.Turn()
	if limit == nil || actor == "" || state.Bots[actor] != nil {
		state.TurnActor = ""
		state.TurnDeadline = 0
		return
	}
	if actor != state.TurnActor {
		state.TurnActor = actor
		state.TurnDeadline = state.Tick + state.ticks(*limit)
		return
	}
	if state.Tick < state.TurnDeadline {
		return
	}

	logger.Info("processTurnTimer: %s ran out of time, auto-playing.", actor)
	stand := &bot.Agent{ID: actor, Name: actor, Level: bot.BotLevelGood, Strategy: &bot.GoodBot{}}
	mh.actFor(ctx, state, dispatcher, logger, stand)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Engine == nil {
		if !state.BotsEnabled || state.GetHumanPlayerCount() != 1 {
			state.LastSinglePlayerTick = 0
			return
		}
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		}
		if state.Tick-state.LastSinglePlayerTick < state.ticks(state.BotAutoFillDelay) {
			return
		}

		want := state.BotAutoFillSeats
		if open := state.GetOpenSeatsCount(); want > open {
			want = open
		}
		added := false
		for _, botID := range bot.PickBots(state.Seats, want) {
			i := domain.LowestAvailableSeat(state.Seats)
			if i < 0 {
				break
			}
			agent, err := bot.NewAgent(botID, state.BotLevel, state.rng)
			if err != nil {
				logger.Error("processBots: Failed to create bot agent for %s: %v", botID, err)
				continue
			}
			state.Seats[i] = botID
			state.Bots[botID] = agent
			logger.Info("processBots: Added bot %s (%s, %s) to seat %d", agent.Name, botID, agent.Level, i)
			added = true
		}
		if added {
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastMatchState(state, dispatcher, logger)
		}
		state.LastSinglePlayerTick = 0
		return
	}

	// 2. Handle bot and stand-in turns in-game
	_, actor := state.Engine.Turn()
	agent, ok := state.Bots[actor]
	if actor == "" || !ok || state.PauseUntil != 0 {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if spread := state.BotMaxDelay - state.BotMinDelay; spread > 0 {
			delay += state.rng.Intn(spread + 1)
		}
		state.BotWaitUntil = state.Tick + state.ticks(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", actor, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0
	mh.actFor(ctx, state, dispatcher, logger, agent)
}

// actFor asks an agent for its decision and runs it.
func (mh *matchHandler) actFor(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, agent *bot.Agent) {
	action, err := agent.Decide(state.Engine.State())
	if err != nil {
		if !errors.Is(err, bot.ErrNoDecision) {
			logger.Error("actFor: %s failed to decide: %v", agent.ID, err)
		}
		return
	}
	mh.runCommand(ctx, state, dispatcher, logger, agent.ID, func(e *app.Engine) (*domain.GameState, []app.Event, error) {
		if action.IsBid {
			return e.PlaceBid(agent.ID, action.Bid)
		}
		return e.PlayCard(agent.ID, action.CardID)
	})
}

// finishGame records results and returns the match to the lobby.
func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snapshot *domain.GameState) {
	winners := make(map[string]bool)
	for _, w := range domain.DetermineWinners(snapshot.Players) {
		winners[w.ID] = true
	}
	bidsMade := make(map[string]int)
	for _, r := range snapshot.RoundHistory {
		for _, pr := range r.PlayerResults {
			if pr.MadeBid {
				bidsMade[pr.PlayerID]++
			}
		}
	}

	var records []ports.ScoreRecord
	var results []ports.GameResult
	for _, p := range snapshot.Players {
		if isBotUserId(p.ID) {
			continue
		}
		records = append(records, ports.ScoreRecord{
			UserID:   p.ID,
			Username: p.Name,
			Score:    int64(p.TotalScore),
			Subscore: int64(bidsMade[p.ID]),
			Metadata: map[string]interface{}{
				"game_id":  snapshot.GameID,
				"match_id": state.MatchID,
				"rounds":   snapshot.TotalRounds,
				"scoring":  string(snapshot.Settings.ScoringVariant),
			},
		})
		results = append(results, ports.GameResult{
			UserID:       p.ID,
			Won:          winners[p.ID],
			BidsMade:     bidsMade[p.ID],
			RoundsPlayed: len(snapshot.RoundHistory),
			TotalScore:   p.TotalScore,
		})
	}

	if state.Leaderboard != nil && len(records) > 0 {
		if err := state.Leaderboard.SubmitScores(ctx, records); err != nil {
			logger.Error("finishGame: Failed to submit scores: %v", err)
		}
	}
	if state.Stats != nil && len(results) > 0 {
		if err := state.Stats.RecordResults(ctx, results); err != nil {
			logger.Error("finishGame: Failed to record stats: %v", err)
		}
	}

	for userID := range state.Departed {
		if i := state.seatOf(userID); i >= 0 {
			state.Seats[i] = ""
		}
		delete(state.Bots, userID)
	}
	state.Departed = make(map[string]bool)
	state.Engine = nil
	state.PauseUntil = 0
	state.TurnActor = ""
	state.TurnDeadline = 0
	state.BotWaitUntil = 0

	logger.Info("finishGame: Game %s finished, %d winner(s).", snapshot.GameID, len(winners))

	mh.fixOwner(state, logger)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
}

func (mh *matchHandler) matchStateMessage(state *MatchState) map[string]interface{} {
	players := make([]interface{}, 0, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		_, connected := state.Presences[userID]
		players = append(players, map[string]interface{}{
			"userId":      userID,
			"seat":        i,
			"isOwner":     i == state.OwnerSeat,
			"isBot":       isBotUserId(userID),
			"connected":   connected,
			"displayName": state.displayName(userID),
		})
	}
	return map[string]interface{}{
		"seats":     stringsValue(state.Seats),
		"ownerSeat": state.OwnerSeat,
		"tick":      state.Tick,
		"phase":     string(state.phase()),
		"players":   players,
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.sendMatchState(state, dispatcher, logger, nil)
}

func (mh *matchHandler) sendMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	bytes, err := encodeMessage(mh.matchStateMessage(state))
	if err != nil {
		logger.Error("sendMatchState: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, bytes, presences, nil, true); err != nil {
		logger.Error("sendMatchState: Failed to send: %v", err)
	}
}

// broadcastGameState sends every connected seated player their own view of the snapshot.
func (mh *matchHandler) broadcastGameState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snapshot *domain.GameState) {
	for _, p := range snapshot.Players {
		mh.sendGameState(state, dispatcher, logger, snapshot, p.ID)
	}
}

func (mh *matchHandler) sendGameState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, snapshot *domain.GameState, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	bytes, err := encodeMessage(gameStateView(snapshot, userID))
	if err != nil {
		logger.Error("sendGameState: Failed to marshal view for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameState, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendGameState: Failed to send to %s: %v", userID, err)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, payload, err := eventMessage(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	bytes, err := encodeMessage(payload)
	if err != nil {
		logger.Error("broadcastEvent: Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Private events for bots or disconnected users must not fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("broadcastEvent: Failed to send %v: %v", ev.Kind, err)
	}
}

// sendError sends a game_error payload to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	bytes, err := encodeMessage(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: Failed to send to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(domain.ComputeLabel(state.Seats, state.phase()))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated, grace %d seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
