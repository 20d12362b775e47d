package domain

import "sort"

// DidMakeBid reports whether a player took exactly the tricks they bid.
func DidMakeBid(bid, tricksWon int) bool {
	return bid == tricksWon
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// CalculateRoundScore returns the points for one player's round. Unknown variants score as standard.
func CalculateRoundScore(bid, tricksWon int, variant ScoringVariant) int {
	made := DidMakeBid(bid, tricksWon)
	diff := abs(tricksWon - bid)

	switch variant {
	case ScoringSimple:
		if made {
			return bid * 10
		}
		return -diff * 10
	case ScoringNilBonus:
		if bid == 0 {
			if made {
				return 20
			}
			return -20
		}
	}

	if made {
		return 10 + bid*5
	}
	return -diff * 5
}

// UpdatePlayerScores sets RoundScore and accumulates TotalScore for every player that bid.
func UpdatePlayerScores(players []*Player, variant ScoringVariant) {
	for _, p := range players {
		if p.Bid == nil {
			continue
		}
		p.RoundScore = CalculateRoundScore(*p.Bid, p.TricksWon, variant)
		p.TotalScore += p.RoundScore
	}
}

// DetermineWinners returns every player tied at the highest total.
func DetermineWinners(players []*Player) []*Player {
	if len(players) == 0 {
		return []*Player{}
	}
	best := players[0].TotalScore
	for _, p := range players[1:] {
		if p.TotalScore > best {
			best = p.TotalScore
		}
	}
	winners := make([]*Player, 0, 1)
	for _, p := range players {
		if p.TotalScore == best {
			winners = append(winners, p)
		}
	}
	return winners
}

// FinalStandings returns players ordered by total score, highest first. Ties keep seat order.
func FinalStandings(players []*Player) []*Player {
	out := append([]*Player{}, players...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}
