package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// TeamService registers teams and their rosters.
type TeamService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	locks *TournamentLocks
}

func NewTeamService(db *sqlx.DB, store *store.TournamentStore, locks *TournamentLocks) *TeamService {
	return &TeamService{db: db, store: store, locks: locks}
}

func (s *TeamService) AddTeam(ctx context.Context, actor users.Actor, tournamentID uuid.UUID, name string) (*bracket.Team, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, fmt.Errorf("%w: team name", ErrNameRequired)
	}
	teams, err := s.ImportTeams(ctx, actor, tournamentID, name)
	if err != nil {
		return nil, err
	}
	return &teams[0], nil
}

// ImportTeams registers one team per non-empty line, seeded after the teams
// already registered.
func (s *TeamService) ImportTeams(ctx context.Context, actor users.Actor, tournamentID uuid.UUID, names string) ([]bracket.Team, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, tournament); err != nil {
		return nil, err
	}

	var teams []bracket.Team
	// Seeds are allocated from the current maximum, so imports run one at a time
	err = s.locks.Exclusive(tournamentID, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		scheduled, err := s.store.CountMatchesTx(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if scheduled > 0 {
			return ErrBracketLocked
		}

		maxSeed, err := s.store.MaxSeedTx(ctx, tx, tournamentID)
		if err != nil {
			return err
		}

		for _, line := range strings.Split(names, "\n") {
			name := strings.TrimSpace(line)
			if name == "" {
				continue
			}
			teams = append(teams, bracket.Team{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Name:         name,
				Seed:         maxSeed + len(teams) + 1,
			})
		}

		if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// SearchTeams returns the teams whose name fuzzily matches query, closest
// first. An empty query returns every team.
func (s *TeamService) SearchTeams(ctx context.Context, tournamentID uuid.UUID, query string) ([]bracket.Team, error) {
	teams, err := s.store.GetTeams(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return teams, nil
	}

	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	found := make([]bracket.Team, 0, len(ranks))
	for _, r := range ranks {
		found = append(found, teams[r.OriginalIndex])
	}
	return found, nil
}

func (s *TeamService) AddPlayer(ctx context.Context, actor users.Actor, teamID uuid.UUID, name string, jerseyNumber *int) (*bracket.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name", ErrNameRequired)
	}

	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.store.GetTournament(ctx, team.TournamentID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, tournament); err != nil {
		return nil, err
	}

	player := bracket.Player{
		ID:           uuid.New(),
		TeamID:       teamID,
		Name:         name,
		JerseyNumber: jerseyNumber,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreatePlayers(ctx, tx, []bracket.Player{player}); err != nil {
		return nil, err
	}
	return &player, tx.Commit()
}

func (s *TeamService) Roster(ctx context.Context, teamID uuid.UUID) ([]bracket.Player, error) {
	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.store.GetPlayers(ctx, teamID)
}
