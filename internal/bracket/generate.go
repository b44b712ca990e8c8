package bracket

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrInsufficientTeams  = errors.New("at least two teams are required")
	ErrUnsupportedFormat  = errors.New("unsupported tournament format")
	ErrInvalidPoolCount   = errors.New("pool count must leave at least two teams per pool")
	ErrInvalidAdvancement = errors.New("at least one team per pool must advance")
)

type Options struct {
	PoolCount int
}

// Build generates the opening schedule of a tournament. The output only
// depends on the inputs, so building twice yields the same matches and ids.
func Build(tournamentID uuid.UUID, format Format, teams []Team, opts Options) ([]Match, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	switch format {
	case FormatSingleElimination:
		return SingleElimination(tournamentID, teams)
	case FormatDoubleElimination:
		return DoubleElimination(tournamentID, teams)
	case FormatRoundRobin:
		return RoundRobin(tournamentID, teams)
	case FormatPoolPlay:
		return PoolPlay(tournamentID, teams, opts.PoolCount)
	case FormatSwiss:
		return SwissFirstRound(tournamentID, teams)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// MatchID derives a stable id for a match from its place in the tournament.
func MatchID(tournamentID uuid.UUID, phase Phase, pool string, round, position int) uuid.UUID {
	key := fmt.Sprintf("%s/%s/%d/%d", phase, pool, round, position)
	return uuid.NewSHA1(tournamentID, []byte(key))
}

func newMatch(tournamentID uuid.UUID, phase Phase, pool string, round, position int) Match {
	m := Match{
		ID:              MatchID(tournamentID, phase, pool, round, position),
		TournamentID:    tournamentID,
		Phase:           phase,
		Round:           round,
		BracketPosition: position,
		Status:          MatchScheduled,
	}
	if pool != "" {
		p := pool
		m.Pool = &p
	}
	return m
}

func poolName(m *Match) string {
	if m.Pool == nil {
		return ""
	}
	return *m.Pool
}

// numberMatches sorts by round, pool and position and assigns match numbers
// starting at first.
func numberMatches(matches []Match, first int) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		if pi, pj := poolName(&matches[i]), poolName(&matches[j]); pi != pj {
			return pi < pj
		}
		return matches[i].BracketPosition < matches[j].BracketPosition
	})
	for i := range matches {
		matches[i].MatchNumber = first + i
	}
}

func eliminationRoundName(totalRounds, round int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round of %d", 1<<(totalRounds-round+1))
	}
}
