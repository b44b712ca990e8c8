package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// PoolName returns the display name of the i-th pool: A, B, ... Z, AA, AB ...
func PoolName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

// AssignPools spreads teams over pools in serpentine order so every pool gets
// a similar spread of seeds: A B C C B A A B C ...
func AssignPools(teams []Team, poolCount int) ([][]Team, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}
	if poolCount < 1 || len(teams)/poolCount < 2 {
		return nil, fmt.Errorf("%w: %d pools for %d teams", ErrInvalidPoolCount, poolCount, len(teams))
	}

	pools := make([][]Team, poolCount)
	for i, team := range teams {
		idx := i % poolCount
		if (i/poolCount)%2 != 0 {
			idx = poolCount - 1 - idx
		}
		pools[idx] = append(pools[idx], team)
	}
	return pools, nil
}

// PoolPlay schedules a round robin inside every pool. Pool matches have no
// parents, the bracket phase is generated separately from pool standings.
func PoolPlay(tournamentID uuid.UUID, teams []Team, poolCount int) ([]Match, error) {
	pools, err := AssignPools(teams, poolCount)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i, poolTeams := range pools {
		matches = append(matches, roundRobinMatches(tournamentID, PhasePool, PoolName(i), poolTeams)...)
	}

	numberMatches(matches, 1)
	return matches, nil
}

// PoolStanding is the ranked result of one pool, best team first.
type PoolStanding struct {
	Pool   string
	Ranked []Team
}

// BracketPhase seeds the top advance teams of every pool into a single
// elimination bracket: all pool winners first, then all runners-up and so on.
// Match numbers continue after firstMatchNumber-1.
func BracketPhase(tournamentID uuid.UUID, standings []PoolStanding, advance int, firstMatchNumber int) ([]Match, error) {
	if advance < 1 {
		return nil, ErrInvalidAdvancement
	}

	var seeds []Team
	for rank := 0; rank < advance; rank++ {
		for _, pool := range standings {
			if rank < len(pool.Ranked) {
				seeds = append(seeds, pool.Ranked[rank])
			}
		}
	}

	matches, err := SingleElimination(tournamentID, seeds)
	if err != nil {
		return nil, err
	}
	numberMatches(matches, firstMatchNumber)
	return matches, nil
}
