package bracket

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// SwissRoundCount is the number of rounds needed to separate a single
// unbeaten team.
func SwissRoundCount(teams int) int {
	if teams < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(teams))))
}

func swissMatch(tournamentID uuid.UUID, round, position int, teamA uuid.UUID, teamB *uuid.UUID) Match {
	m := newMatch(tournamentID, PhaseSwiss, "", round, position)
	m.RoundName = fmt.Sprintf("Swiss Round %d", round)
	m.TeamAID = &teamA
	if teamB == nil {
		m.CompleteAsBye()
	} else {
		b := *teamB
		m.TeamBID = &b
	}
	return m
}

// SwissFirstRound pairs the top half of the seeds against the bottom half.
// With an odd count the lowest seed gets a bye.
func SwissFirstRound(tournamentID uuid.UUID, teams []Team) ([]Match, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	half := len(teams) / 2
	matches := make([]Match, 0, half+1)
	for i := 0; i < half; i++ {
		opponent := teams[i+half].ID
		matches = append(matches, swissMatch(tournamentID, 1, i+1, teams[i].ID, &opponent))
	}
	if len(teams)%2 != 0 {
		matches = append(matches, swissMatch(tournamentID, 1, half+1, teams[len(teams)-1].ID, nil))
	}

	numberMatches(matches, 1)
	return matches, nil
}

// SwissHistory is what a swiss pairing needs to know about earlier rounds.
type SwissHistory struct {
	Played map[[2]uuid.UUID]bool
	HadBye map[uuid.UUID]bool
}

func NewSwissHistory() SwissHistory {
	return SwissHistory{
		Played: make(map[[2]uuid.UUID]bool),
		HadBye: make(map[uuid.UUID]bool),
	}
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() > b.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}

func (h SwissHistory) AddPairing(a, b uuid.UUID) {
	h.Played[pairKey(a, b)] = true
}

func (h SwissHistory) HavePlayed(a, b uuid.UUID) bool {
	return h.Played[pairKey(a, b)]
}

// SwissRound pairs ranked teams top-down, skipping rematches where another
// opponent is still available. With an odd count the lowest ranked team that
// has not had a bye yet sits out.
func SwissRound(tournamentID uuid.UUID, round int, ranked []Team, history SwissHistory, firstMatchNumber int) ([]Match, error) {
	if len(ranked) < 2 {
		return nil, ErrInsufficientTeams
	}

	remaining := make([]uuid.UUID, len(ranked))
	for i, t := range ranked {
		remaining[i] = t.ID
	}

	var byeTeam *uuid.UUID
	if len(remaining)%2 != 0 {
		pick := len(remaining) - 1
		for i := len(remaining) - 1; i >= 0; i-- {
			if !history.HadBye[remaining[i]] {
				pick = i
				break
			}
		}
		id := remaining[pick]
		byeTeam = &id
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}

	var matches []Match
	position := 1
	for len(remaining) > 0 {
		a := remaining[0]
		opponent := 1
		for j := 1; j < len(remaining); j++ {
			if !history.HavePlayed(a, remaining[j]) {
				opponent = j
				break
			}
		}
		b := remaining[opponent]
		matches = append(matches, swissMatch(tournamentID, round, position, a, &b))
		position++

		remaining = append(remaining[1:opponent], remaining[opponent+1:]...)
	}

	if byeTeam != nil {
		matches = append(matches, swissMatch(tournamentID, round, position, *byeTeam, nil))
	}

	numberMatches(matches, firstMatchNumber)
	return matches, nil
}
