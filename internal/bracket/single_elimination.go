package bracket

import (
	"math"

	"github.com/google/uuid"
)

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// generateRound1Pairs returns seed index pairs for the first round. Seeds are
// folded so that 1 and 2 can only meet in the final.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// SingleElimination builds a full bracket for the teams in seed order. Slots
// without an opponent become byes which are completed straight away and
// already advanced into round 2.
func SingleElimination(tournamentID uuid.UUID, teams []Team) ([]Match, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	matches, _ := eliminationTree(tournamentID, teams)
	numberMatches(matches, 1)
	return matches, nil
}

// eliminationTree returns the unnumbered bracket matches and the number of
// rounds.
func eliminationTree(tournamentID uuid.UUID, teams []Team) ([]Match, int) {
	bracketSize := calcBracketSize(len(teams))
	totalRounds := int(math.Log2(float64(bracketSize)))

	matches := make([]Match, 0, bracketSize-1)
	index := make(map[uuid.UUID]int, bracketSize-1)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := 1 << (totalRounds - r)

		for i := 0; i < matchesInCurrentRound; i++ {
			position := i + 1
			m := newMatch(tournamentID, PhaseBracket, "", r, position)
			m.RoundName = eliminationRoundName(totalRounds, r)

			if r > 1 {
				parentA := MatchID(tournamentID, PhaseBracket, "", r-1, 2*position-1)
				parentB := MatchID(tournamentID, PhaseBracket, "", r-1, 2*position)
				m.ParentMatchAID = &parentA
				m.ParentMatchBID = &parentB
			}

			index[m.ID] = len(matches)
			matches = append(matches, m)
		}
	}

	pairings := generateRound1Pairs(bracketSize)
	for i, pair := range pairings {
		position := i + 1
		match := &matches[index[MatchID(tournamentID, PhaseBracket, "", 1, position)]]

		teamA := teams[pair[0]].ID
		match.TeamAID = &teamA
		if pair[1] < len(teams) {
			teamB := teams[pair[1]].ID
			match.TeamBID = &teamB
			continue
		}

		// Check for byes immediately
		match.CompleteAsBye()
		next := &matches[index[MatchID(tournamentID, PhaseBracket, "", 2, (position+1)/2)]]
		if position%2 != 0 {
			next.TeamAID = match.WinnerTeamID
		} else {
			next.TeamBID = match.WinnerTeamID
		}
	}

	return matches, totalRounds
}
