package domain

// GameName is advertised in match labels.
const GameName = "judgement"

// LowestAvailableSeat returns the first free seat index, or -1 when every seat is taken.
func LowestAvailableSeat(seats []string) int {
	for i, userID := range seats {
		if userID == "" {
			return i
		}
	}
	return -1
}

// CountOccupied returns the number of non-empty seats.
func CountOccupied(seats []string) int {
	n := 0
	for _, userID := range seats {
		if userID != "" {
			n++
		}
	}
	return n
}

// RotateAfter returns ids starting with the one after index start, wrapping around.
// The element at start ends up last.
func RotateAfter(ids []string, start int) []string {
	n := len(ids)
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ids[(start+i)%n])
	}
	return out
}

// LabelPayload holds the values advertised in the match label.
type LabelPayload struct {
	Open    int    `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

// ComputeLabel derives the advertised label from the seat table and game phase.
// Seats only count as open while the match is in the lobby.
func ComputeLabel(seats []string, phase Phase) LabelPayload {
	occupied := CountOccupied(seats)
	open := 0
	if phase == PhaseLobby {
		open = len(seats) - occupied
	}
	return LabelPayload{Open: open, Game: GameName, Phase: string(phase), Players: occupied}
}
