package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrStaleVersion = errors.New("record was modified concurrently, retry the operation")
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// DB exposes the handle for services that open their own transactions.
func (s *TournamentStore) DB() *sqlx.DB {
	return s.db
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return err
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, owner_id, name, format, pool_count, advance_per_pool, allow_draws)
        VALUES (:id, :owner_id, :name, :format, :pool_count, :advance_per_pool, :allow_draws)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, s.db.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, "tournament", id)
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, s.db.Rebind("SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC"), ownerID)
	return tournaments, err
}

func (s *TournamentStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, tournament_id, name, seed)
            VALUES (:id, :tournament_id, :name, :seed)`, teams)
	return err
}

func (s *TournamentStore) GetTeams(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, s.db.Rebind("SELECT * FROM teams WHERE tournament_id = ? ORDER BY seed ASC"), tournamentID)
	return teams, err
}

func (s *TournamentStore) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, s.db.Rebind("SELECT * FROM teams WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, "team", id)
	}
	return &team, nil
}

func (s *TournamentStore) MaxSeedTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var seed int
	err := tx.GetContext(ctx, &seed, tx.Rebind("SELECT COALESCE(MAX(seed), 0) FROM teams WHERE tournament_id = ?"), tournamentID)
	return seed, err
}

func (s *TournamentStore) CreatePlayers(ctx context.Context, tx *sqlx.Tx, players []bracket.Player) error {
	if len(players) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (id, team_id, name, jersey_number)
            VALUES (:id, :team_id, :name, :jersey_number)`, players)
	return err
}

func (s *TournamentStore) GetPlayers(ctx context.Context, teamID uuid.UUID) ([]bracket.Player, error) {
	var players []bracket.Player
	err := s.db.SelectContext(ctx, &players, s.db.Rebind(`SELECT * FROM players WHERE team_id = ?
		ORDER BY jersey_number IS NULL, jersey_number ASC, name ASC`), teamID)
	return players, err
}

func (s *TournamentStore) GetPlayer(ctx context.Context, id uuid.UUID) (*bracket.Player, error) {
	var player bracket.Player
	err := s.db.GetContext(ctx, &player, s.db.Rebind("SELECT * FROM players WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, "player", id)
	}
	return &player, nil
}
