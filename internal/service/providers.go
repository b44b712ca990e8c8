package service

import (
	"context"
	"sort"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	"github.com/google/uuid"
)

// RosterProvider returns the players expected to report attendance for a team.
type RosterProvider interface {
	ExpectedPlayers(ctx context.Context, tournamentID, teamID uuid.UUID) ([]uuid.UUID, error)
}

// StandingsProvider ranks the teams of every pool, best first.
type StandingsProvider interface {
	PoolStandings(ctx context.Context, tournamentID uuid.UUID) (map[string][]uuid.UUID, error)
}

// StoreRoster reads rosters from the players table.
type StoreRoster struct {
	store *store.TournamentStore
}

func NewStoreRoster(store *store.TournamentStore) *StoreRoster {
	return &StoreRoster{store: store}
}

func (r *StoreRoster) ExpectedPlayers(ctx context.Context, tournamentID, teamID uuid.UUID) ([]uuid.UUID, error) {
	players, err := r.store.GetPlayers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids, nil
}

// TeamRecord is a team's results over a set of completed matches. Points
// count a win as 2 and a draw as 1 so that ranking stays in integers.
type TeamRecord struct {
	Team          bracket.Team `json:"team"`
	Played        int          `json:"played"`
	Wins          int          `json:"wins"`
	Draws         int          `json:"draws"`
	Losses        int          `json:"losses"`
	PointsFor     int          `json:"points_for"`
	PointsAgainst int          `json:"points_against"`
}

func (r TeamRecord) Points() int {
	return 2*r.Wins + r.Draws
}

func (r TeamRecord) Differential() int {
	return r.PointsFor - r.PointsAgainst
}

// RankTeams orders teams by wins (draws count half), then point
// differential, then points scored, then seed. Only completed matches count;
// a bye counts as a win without points.
func RankTeams(teams []bracket.Team, matches []bracket.Match) []TeamRecord {
	records := make(map[uuid.UUID]*TeamRecord, len(teams))
	for _, t := range teams {
		records[t.ID] = &TeamRecord{Team: t}
	}

	for _, m := range matches {
		if m.Status != bracket.MatchCompleted {
			continue
		}
		if m.IsBye {
			if m.WinnerTeamID != nil {
				if r, ok := records[*m.WinnerTeamID]; ok {
					r.Played++
					r.Wins++
				}
			}
			continue
		}
		if !m.HasBothTeams() {
			continue
		}
		a, okA := records[*m.TeamAID]
		b, okB := records[*m.TeamBID]
		if !okA || !okB {
			continue
		}

		a.Played++
		b.Played++
		a.PointsFor += m.ScoreA
		a.PointsAgainst += m.ScoreB
		b.PointsFor += m.ScoreB
		b.PointsAgainst += m.ScoreA

		switch {
		case m.WinnerTeamID == nil:
			a.Draws++
			b.Draws++
		case *m.WinnerTeamID == a.Team.ID:
			a.Wins++
			b.Losses++
		default:
			b.Wins++
			a.Losses++
		}
	}

	ranked := make([]TeamRecord, 0, len(teams))
	for _, t := range teams {
		ranked = append(ranked, *records[t.ID])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i], ranked[j]
		if ri.Points() != rj.Points() {
			return ri.Points() > rj.Points()
		}
		if ri.Differential() != rj.Differential() {
			return ri.Differential() > rj.Differential()
		}
		if ri.PointsFor != rj.PointsFor {
			return ri.PointsFor > rj.PointsFor
		}
		return ri.Team.Seed < rj.Team.Seed
	})
	return ranked
}

// StoreStandings computes pool standings from stored pool results.
type StoreStandings struct {
	store *store.TournamentStore
}

func NewStoreStandings(store *store.TournamentStore) *StoreStandings {
	return &StoreStandings{store: store}
}

func (s *StoreStandings) PoolStandings(ctx context.Context, tournamentID uuid.UUID) (map[string][]uuid.UUID, error) {
	teams, err := s.store.GetTeams(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	teamsByID := make(map[uuid.UUID]bracket.Team, len(teams))
	for _, t := range teams {
		teamsByID[t.ID] = t
	}

	poolMatches := make(map[string][]bracket.Match)
	poolTeams := make(map[string]map[uuid.UUID]bool)
	for _, m := range matches {
		if m.Phase != bracket.PhasePool || m.Pool == nil {
			continue
		}
		pool := *m.Pool
		poolMatches[pool] = append(poolMatches[pool], m)
		if poolTeams[pool] == nil {
			poolTeams[pool] = make(map[uuid.UUID]bool)
		}
		for _, id := range []*uuid.UUID{m.TeamAID, m.TeamBID} {
			if id != nil {
				poolTeams[pool][*id] = true
			}
		}
	}

	standings := make(map[string][]uuid.UUID, len(poolMatches))
	for pool, members := range poolTeams {
		// teams is seed ordered, keep that order for ties
		var inPool []bracket.Team
		for _, t := range teams {
			if members[t.ID] {
				inPool = append(inPool, teamsByID[t.ID])
			}
		}
		for _, r := range RankTeams(inPool, poolMatches[pool]) {
			standings[pool] = append(standings[pool], r.Team.ID)
		}
	}
	return standings, nil
}
