package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/db"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// Every connection to :memory: is its own database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type fixture struct {
	ctx       context.Context
	db        *sqlx.DB
	store     *store.TournamentStore
	schedule  *ScheduleService
	matches   *MatchService
	teams     *TeamService
	admin     users.Actor
	volunteer users.Actor
}

// setupFileDB opens a SQLite file with the production connection options, so
// several connections write to the same database.
func setupFileDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "engine.db")))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, db.DriverSQLite, "../../migrations"))
	return database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDB(t, setupTestDB(t))
}

func newFixtureWithDB(t *testing.T, database *sqlx.DB) *fixture {
	t.Helper()

	t.Cleanup(func() { database.Close() })

	tournamentStore := store.NewTournamentStore(database)
	locks := NewTournamentLocks()

	return &fixture{
		ctx:       context.Background(),
		db:        database,
		store:     tournamentStore,
		schedule:  NewScheduleService(database, tournamentStore, NewStoreStandings(tournamentStore), locks),
		matches:   NewMatchService(database, tournamentStore, NewStoreRoster(tournamentStore), locks),
		teams:     NewTeamService(database, tournamentStore, locks),
		admin:     users.Actor{UserID: uuid.New(), Role: users.RoleAdmin},
		volunteer: users.Actor{UserID: uuid.New(), Role: users.RoleVolunteer},
	}
}

func teamNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Team %d", i+1)
	}
	return names
}

// createTournament registers a tournament with the given teams and builds
// its schedule.
func (f *fixture) createTournament(t *testing.T, input TournamentInput) (uuid.UUID, []bracket.Team) {
	t.Helper()

	if input.Name == "" {
		input.Name = "Test Tournament"
	}
	id, err := f.schedule.CreateTournament(f.ctx, f.admin, input)
	require.NoError(t, err)

	_, err = f.schedule.BuildSchedule(f.ctx, f.admin, id)
	require.NoError(t, err)

	teams, err := f.store.GetTeams(f.ctx, id)
	require.NoError(t, err)
	return id, teams
}

func (f *fixture) addRoster(t *testing.T, teamID uuid.UUID, size int) []uuid.UUID {
	t.Helper()

	ids := make([]uuid.UUID, size)
	for i := range ids {
		jersey := i + 1
		p, err := f.teams.AddPlayer(f.ctx, f.admin, teamID, fmt.Sprintf("Player %d", jersey), &jersey)
		require.NoError(t, err)
		ids[i] = p.ID
	}
	return ids
}

func (f *fixture) findMatch(t *testing.T, tournamentID uuid.UUID, phase bracket.Phase, round, position int) bracket.Match {
	t.Helper()

	matches, err := f.store.GetMatches(f.ctx, tournamentID)
	require.NoError(t, err)
	for _, m := range matches {
		if m.Phase == phase && m.Round == round && m.BracketPosition == position {
			return m
		}
	}
	require.FailNow(t, "match not found", "%s round %d position %d", phase, round, position)
	return bracket.Match{}
}

func (f *fixture) reload(t *testing.T, matchID uuid.UUID) bracket.Match {
	t.Helper()

	m, err := f.store.GetMatch(f.ctx, matchID)
	require.NoError(t, err)
	return *m
}

// playMatch runs a match whose teams have no registered players from start
// to completion.
func (f *fixture) playMatch(t *testing.T, matchID uuid.UUID, scoreA, scoreB int) *CompletionResult {
	t.Helper()

	_, err := f.matches.StartMatch(f.ctx, f.volunteer, matchID)
	require.NoError(t, err)
	_, err = f.matches.SetScore(f.ctx, f.volunteer, matchID, scoreA, scoreB)
	require.NoError(t, err)
	result, err := f.matches.CompleteMatch(f.ctx, f.volunteer, matchID, false)
	require.NoError(t, err)
	return result
}

// playBySeed completes a match so the better seed wins.
func (f *fixture) playBySeed(t *testing.T, match bracket.Match, seeds map[uuid.UUID]int) *CompletionResult {
	t.Helper()

	require.True(t, match.HasBothTeams())
	if seeds[*match.TeamAID] < seeds[*match.TeamBID] {
		return f.playMatch(t, match.ID, 15, 10)
	}
	return f.playMatch(t, match.ID, 10, 15)
}

func seedIndex(teams []bracket.Team) map[uuid.UUID]int {
	seeds := make(map[uuid.UUID]int, len(teams))
	for _, team := range teams {
		seeds[team.ID] = team.Seed
	}
	return seeds
}
