package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// circleRounds pairs n entrants with the circle method. Every unordered pair
// appears exactly once. With an odd n one entrant rests each round.
func circleRounds(n int) [][][2]int {
	if n < 2 {
		return nil
	}

	players := make([]int, n)
	for i := range players {
		players[i] = i
	}
	// Dummy entrant for a rest round
	if n%2 != 0 {
		players = append(players, -1)
	}

	size := len(players)
	half := size / 2
	rounds := make([][][2]int, 0, size-1)

	for r := 0; r < size-1; r++ {
		pairs := make([][2]int, 0, half)
		for i := 0; i < half; i++ {
			a, b := players[i], players[size-1-i]
			if a >= 0 && b >= 0 {
				pairs = append(pairs, [2]int{a, b})
			}
		}
		rounds = append(rounds, pairs)

		// Rotate everyone but the first entrant
		players = append([]int{players[0], players[size-1]}, players[1:size-1]...)
	}

	return rounds
}

func roundRobinMatches(tournamentID uuid.UUID, phase Phase, pool string, teams []Team) []Match {
	var matches []Match
	for r, pairs := range circleRounds(len(teams)) {
		round := r + 1
		for i, pair := range pairs {
			m := newMatch(tournamentID, phase, pool, round, i+1)
			if pool != "" {
				m.RoundName = fmt.Sprintf("Pool %s - Round %d", pool, round)
			} else {
				m.RoundName = fmt.Sprintf("Round %d", round)
			}
			teamA, teamB := teams[pair[0]].ID, teams[pair[1]].ID
			m.TeamAID = &teamA
			m.TeamBID = &teamB
			matches = append(matches, m)
		}
	}
	return matches
}

// RoundRobin schedules one match for every pair of teams.
func RoundRobin(tournamentID uuid.UUID, teams []Team) ([]Match, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	matches := roundRobinMatches(tournamentID, PhaseRoundRobin, "", teams)
	numberMatches(matches, 1)
	return matches, nil
}
