package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ScheduleService owns tournaments and their generated matches.
type ScheduleService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	standings StandingsProvider
	locks     *TournamentLocks
}

func NewScheduleService(db *sqlx.DB, store *store.TournamentStore, standings StandingsProvider, locks *TournamentLocks) *ScheduleService {
	return &ScheduleService{db: db, store: store, standings: standings, locks: locks}
}

type TournamentInput struct {
	Name           string         `json:"name"`
	Format         bracket.Format `json:"format"`
	PoolCount      int            `json:"pool_count"`
	AdvancePerPool int            `json:"advance_per_pool"`
	AllowDraws     bool           `json:"allow_draws"`
	Teams          []string       `json:"teams"`
}

type TournamentData struct {
	Tournament  *bracket.Tournament `json:"tournament"`
	Teams       []bracket.Team      `json:"teams"`
	Matches     []bracket.Match     `json:"matches"`
	NextMatchID *uuid.UUID          `json:"next_match_id,omitempty"`
}

// canManage allows the owner of a tournament and administrators.
func canManage(actor users.Actor, tournament *bracket.Tournament) error {
	if actor.IsAdmin() || actor.UserID == tournament.OwnerID {
		return nil
	}
	return ErrForbidden
}

func (s *ScheduleService) CreateTournament(ctx context.Context, actor users.Actor, input TournamentInput) (uuid.UUID, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: tournament name", ErrNameRequired)
	}
	if !input.Format.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, input.Format)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournamentID := uuid.New()
	tournament := bracket.Tournament{
		ID:             tournamentID,
		OwnerID:        actor.UserID,
		Name:           name,
		Format:         input.Format,
		PoolCount:      input.PoolCount,
		AdvancePerPool: input.AdvancePerPool,
		AllowDraws:     input.AllowDraws,
	}

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}

	var teams []bracket.Team
	for _, teamName := range input.Teams {
		teamName = strings.TrimSpace(teamName)
		if teamName == "" {
			continue
		}
		teams = append(teams, bracket.Team{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Name:         teamName,
			Seed:         len(teams) + 1,
		})
	}

	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return uuid.Nil, err
	}

	return tournamentID, tx.Commit()
}

func (s *ScheduleService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	teams, err := s.store.GetTeams(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	var nextMatchID *uuid.UUID
	for _, m := range matches {
		if m.Status != bracket.MatchCompleted && m.HasBothTeams() {
			id := m.ID
			nextMatchID = &id
			break
		}
	}

	return &TournamentData{
		Tournament:  tournament,
		Teams:       teams,
		Matches:     matches,
		NextMatchID: nextMatchID,
	}, nil
}

func (s *ScheduleService) GetTournamentsForUser(ctx context.Context, actor users.Actor) ([]bracket.Tournament, error) {
	return s.store.GetTournamentsByOwner(ctx, actor.UserID)
}

// BuildSchedule discards every match of the tournament and generates the
// opening schedule for its format. Match operations on the tournament wait
// until it is done.
func (s *ScheduleService) BuildSchedule(ctx context.Context, actor users.Actor, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, tournament); err != nil {
		return nil, err
	}

	var matches []bracket.Match
	err = s.locks.Exclusive(tournamentID, func() error {
		teams, err := s.store.GetTeams(ctx, tournamentID)
		if err != nil {
			return err
		}

		matches, err = bracket.Build(tournamentID, tournament.Format, teams, bracket.Options{PoolCount: tournament.PoolCount})
		if err != nil {
			return err
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		removed, err := s.store.DeleteMatches(ctx, tx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to delete matches: %w", err)
		}
		if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
			return fmt.Errorf("failed to create matches: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		slog.Info("schedule built",
			"tournament_id", tournamentID,
			"format", tournament.Format,
			"teams", len(teams),
			"matches", len(matches),
			"replaced", removed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// BuildBracketPhase seeds the top teams of every pool into an elimination
// bracket once all pool matches are done. Earlier bracket matches are replaced.
func (s *ScheduleService) BuildBracketPhase(ctx context.Context, actor users.Actor, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, tournament); err != nil {
		return nil, err
	}
	if tournament.Format != bracket.FormatPoolPlay {
		return nil, fmt.Errorf("%w: bracket phase needs pool play, tournament is %q", ErrUnsupportedFormat, tournament.Format)
	}

	var matches []bracket.Match
	err = s.locks.Exclusive(tournamentID, func() error {
		existing, err := s.store.GetMatches(ctx, tournamentID)
		if err != nil {
			return err
		}
		for _, m := range existing {
			if m.Phase == bracket.PhasePool && m.Status != bracket.MatchCompleted {
				return fmt.Errorf("%w: pool match %d", ErrRoundInProgress, m.MatchNumber)
			}
		}

		teams, err := s.store.GetTeams(ctx, tournamentID)
		if err != nil {
			return err
		}
		teamsByID := make(map[uuid.UUID]bracket.Team, len(teams))
		for _, t := range teams {
			teamsByID[t.ID] = t
		}

		ranked, err := s.standings.PoolStandings(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to compute pool standings: %w", err)
		}
		pools := make([]string, 0, len(ranked))
		for pool := range ranked {
			pools = append(pools, pool)
		}
		sort.Slice(pools, func(i, j int) bool {
			if len(pools[i]) != len(pools[j]) {
				return len(pools[i]) < len(pools[j])
			}
			return pools[i] < pools[j]
		})

		standings := make([]bracket.PoolStanding, 0, len(pools))
		for _, pool := range pools {
			standing := bracket.PoolStanding{Pool: pool}
			for _, id := range ranked[pool] {
				team, ok := teamsByID[id]
				if !ok {
					return fmt.Errorf("standings team %s: %w", id, ErrNotFound)
				}
				standing.Ranked = append(standing.Ranked, team)
			}
			standings = append(standings, standing)
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := s.store.DeleteMatchesByPhase(ctx, tx, tournamentID, bracket.PhaseBracket); err != nil {
			return fmt.Errorf("failed to delete bracket matches: %w", err)
		}
		last, err := s.store.MaxMatchNumberTx(ctx, tx, tournamentID)
		if err != nil {
			return err
		}

		matches, err = bracket.BracketPhase(tournamentID, standings, tournament.AdvancePerPool, last+1)
		if err != nil {
			return err
		}
		if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
			return fmt.Errorf("failed to create matches: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		slog.Info("bracket phase built", "tournament_id", tournamentID, "pools", len(standings), "matches", len(matches))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// NextSwissRound pairs the next swiss round from the current standings.
func (s *ScheduleService) NextSwissRound(ctx context.Context, actor users.Actor, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, tournament); err != nil {
		return nil, err
	}
	if tournament.Format != bracket.FormatSwiss {
		return nil, fmt.Errorf("%w: tournament is %q, not swiss", ErrUnsupportedFormat, tournament.Format)
	}

	var matches []bracket.Match
	err = s.locks.Exclusive(tournamentID, func() error {
		teams, err := s.store.GetTeams(ctx, tournamentID)
		if err != nil {
			return err
		}
		existing, err := s.store.GetMatches(ctx, tournamentID)
		if err != nil {
			return err
		}

		history := bracket.NewSwissHistory()
		round := 0
		for _, m := range existing {
			if m.Phase != bracket.PhaseSwiss {
				continue
			}
			if m.Status != bracket.MatchCompleted {
				return fmt.Errorf("%w: swiss match %d", ErrRoundInProgress, m.MatchNumber)
			}
			if m.Round > round {
				round = m.Round
			}
			if m.HasBothTeams() {
				history.AddPairing(*m.TeamAID, *m.TeamBID)
			} else if m.WinnerTeamID != nil {
				history.HadBye[*m.WinnerTeamID] = true
			}
		}
		if round == 0 {
			return fmt.Errorf("%w: no swiss round has been scheduled", ErrInvalidTransition)
		}
		if round >= bracket.SwissRoundCount(len(teams)) {
			return ErrRoundsExhausted
		}

		records := RankTeams(teams, existing)
		ranked := make([]bracket.Team, len(records))
		for i, r := range records {
			ranked[i] = r.Team
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		last, err := s.store.MaxMatchNumberTx(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		matches, err = bracket.SwissRound(tournamentID, round+1, ranked, history, last+1)
		if err != nil {
			return err
		}
		if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
			return fmt.Errorf("failed to create matches: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		slog.Info("swiss round paired", "tournament_id", tournamentID, "round", round+1, "matches", len(matches))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Standings ranks every team of the tournament over its completed matches.
func (s *ScheduleService) Standings(ctx context.Context, tournamentID uuid.UUID) ([]TeamRecord, error) {
	data, err := s.GetTournamentData(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return RankTeams(data.Teams, data.Matches), nil
}
