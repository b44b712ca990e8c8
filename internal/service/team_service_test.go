package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportTeams(t *testing.T) {
	f := newFixture(t)

	tID, err := f.schedule.CreateTournament(f.ctx, f.admin, TournamentInput{
		Name:   "Summer League",
		Format: bracket.FormatRoundRobin,
		Teams:  []string{"Flying Circus"},
	})
	require.NoError(t, err)

	teams, err := f.teams.ImportTeams(f.ctx, f.admin, tID, "Sky Pilots\n\n  Layout Legends  \nZone Defense\n")
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, "Sky Pilots", teams[0].Name)
	assert.Equal(t, 2, teams[0].Seed)
	assert.Equal(t, "Layout Legends", teams[1].Name)
	assert.Equal(t, 4, teams[2].Seed)

	team, err := f.teams.AddTeam(f.ctx, f.admin, tID, "  Hammer   Time ")
	require.NoError(t, err)
	assert.Equal(t, "Hammer Time", team.Name)
	assert.Equal(t, 5, team.Seed)

	_, err = f.teams.AddTeam(f.ctx, f.admin, tID, "   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = f.teams.ImportTeams(f.ctx, f.volunteer, tID, "Intruders")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.teams.AddTeam(f.ctx, f.admin, uuid.New(), "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := f.store.GetTeams(f.ctx, tID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestImportTeams_ConcurrentImportsGetDistinctSeeds(t *testing.T) {
	f := newFixtureWithDB(t, setupFileDB(t))

	tID, err := f.schedule.CreateTournament(f.ctx, f.admin, TournamentInput{
		Name:   "Club Nationals",
		Format: bracket.FormatSingleElimination,
	})
	require.NoError(t, err)

	const imports = 8
	var wg sync.WaitGroup
	errs := make([]error, imports)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.teams.ImportTeams(context.Background(), f.admin, tID, fmt.Sprintf("Team %dA\nTeam %dB", i, i))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	teams, err := f.store.GetTeams(f.ctx, tID)
	require.NoError(t, err)
	require.Len(t, teams, 2*imports)

	seeds := make([]int, len(teams))
	for i, team := range teams {
		seeds[i] = team.Seed
	}
	sort.Ints(seeds)
	for i, seed := range seeds {
		assert.Equal(t, i+1, seed)
	}
}

func TestSearchTeams(t *testing.T) {
	f := newFixture(t)
	tID, _ := f.createTournament(t, TournamentInput{
		Format: bracket.FormatRoundRobin,
		Teams:  []string{"Sky Pilots", "Skyward", "Layout Legends", "Zone Defense"},
	})

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "empty query lists everything", query: "", expected: []string{"Sky Pilots", "Skyward", "Layout Legends", "Zone Defense"}},
		{name: "closest match first", query: "sky", expected: []string{"Skyward", "Sky Pilots"}},
		{name: "letters in order", query: "lyt", expected: []string{"Layout Legends"}},
		{name: "no match", query: "huck", expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := f.teams.SearchTeams(f.ctx, tID, tc.query)
			require.NoError(t, err)

			names := make([]string, 0, len(found))
			for _, team := range found {
				names = append(names, team.Name)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestAddPlayer(t *testing.T) {
	f := newFixture(t)
	tID, teams := f.createTournament(t, TournamentInput{
		Format: bracket.FormatSingleElimination,
		Teams:  teamNames(2),
	})

	// Rosters stay open after the schedule is built
	player, err := f.teams.AddPlayer(f.ctx, f.admin, teams[0].ID, "Robin", utils.Ptr(23))
	require.NoError(t, err)
	assert.Equal(t, teams[0].ID, player.TeamID)
	_, err = f.teams.AddPlayer(f.ctx, f.admin, teams[0].ID, "Alex", utils.Ptr(4))
	require.NoError(t, err)
	_, err = f.teams.AddPlayer(f.ctx, f.admin, teams[0].ID, "Sam", nil)
	require.NoError(t, err)

	_, err = f.teams.AddPlayer(f.ctx, f.admin, teams[0].ID, "", nil)
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = f.teams.AddPlayer(f.ctx, f.volunteer, teams[0].ID, "Jo", nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.teams.AddPlayer(f.ctx, f.admin, uuid.New(), "Jo", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	roster, err := f.teams.Roster(f.ctx, teams[0].ID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Alex", roster[0].Name)
	assert.Equal(t, "Robin", roster[1].Name)
	assert.Equal(t, "Sam", roster[2].Name)

	expected, err := NewStoreRoster(f.store).ExpectedPlayers(f.ctx, tID, teams[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{roster[0].ID, roster[1].ID, roster[2].ID}, expected)
}
