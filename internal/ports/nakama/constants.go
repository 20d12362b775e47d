package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcGetRules returns the round sequence for a table size.
	RpcGetRules = "get_rules"

	// MatchNameJudgement is the authoritative match handler name registered with Nakama.
	MatchNameJudgement = "judgement_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame    int64 = 1
	OpPlaceBid     int64 = 2
	OpPlayCard     int64 = 3
	OpRequestState int64 = 4
	OpAdvance      int64 = 5

	// Server -> Client
	OpMatchState     int64 = 100
	OpGameState      int64 = 101 // hands redacted per recipient
	OpGameStarted    int64 = 102
	OpRoundStarted   int64 = 103
	OpHandDealt      int64 = 104 // send privately
	OpTrumpRevealed  int64 = 105
	OpBiddingStarted int64 = 106
	OpBidPlaced      int64 = 107
	OpCardPlayed     int64 = 108
	OpTrickCompleted int64 = 109
	OpRoundCompleted int64 = 110
	OpGameEnded      int64 = 111
	OpGameError      int64 = 112
)

// Codes carried in game_error payloads.
const (
	ErrCodeBadRequest = 400
	ErrCodeForbidden  = 403
	ErrCodeInternal   = 500
)

// gRPC status codes used by runtime.NewError.
const (
	grpcInvalidArgument = 3
	grpcInternal        = 13
)
