package service

import (
	"testing"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleElimination_LoserDropsAndGrandFinalFills(t *testing.T) {
	f := newFixture(t)
	tID, teams := f.createTournament(t, TournamentInput{
		Format: bracket.FormatDoubleElimination,
		Teams:  []string{"A", "B", "C", "D"},
	})
	seeds := seedIndex(teams)
	a, b, c, d := teams[0], teams[1], teams[2], teams[3]

	semi1 := f.findMatch(t, tID, bracket.PhaseBracket, 1, 1)
	semi2 := f.findMatch(t, tID, bracket.PhaseBracket, 1, 2)
	winnersFinal := f.findMatch(t, tID, bracket.PhaseBracket, 2, 1)
	losers1 := f.findMatch(t, tID, bracket.PhaseLosers, 1, 1)
	losersFinal := f.findMatch(t, tID, bracket.PhaseLosers, 2, 1)
	grandFinal := f.findMatch(t, tID, bracket.PhaseFinals, 1, 1)

	result := f.playBySeed(t, semi1, seeds)
	updatedIDs := make([]uuid.UUID, 0, len(result.Updated))
	for _, m := range result.Updated {
		updatedIDs = append(updatedIDs, m.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{winnersFinal.ID, losers1.ID}, updatedIDs)

	losers1 = f.reload(t, losers1.ID)
	require.NotNil(t, losers1.TeamAID)
	assert.Equal(t, d.ID, *losers1.TeamAID)
	assert.Equal(t, a.ID, *f.reload(t, winnersFinal.ID).TeamAID)

	f.playBySeed(t, semi2, seeds)
	losers1 = f.reload(t, losers1.ID)
	assert.Equal(t, c.ID, *losers1.TeamBID)

	// C survives its first loss
	f.playBySeed(t, losers1, seeds)
	assert.Equal(t, c.ID, *f.reload(t, losersFinal.ID).TeamAID)

	f.playBySeed(t, f.reload(t, winnersFinal.ID), seeds)
	losersFinal = f.reload(t, losersFinal.ID)
	assert.Equal(t, b.ID, *losersFinal.TeamBID)
	assert.Equal(t, a.ID, *f.reload(t, grandFinal.ID).TeamAID)

	f.playBySeed(t, losersFinal, seeds)
	grandFinal = f.reload(t, grandFinal.ID)
	require.True(t, grandFinal.HasBothTeams())
	assert.Equal(t, a.ID, *grandFinal.TeamAID)
	assert.Equal(t, b.ID, *grandFinal.TeamBID)

	result = f.playMatch(t, grandFinal.ID, 10, 15)
	assert.Equal(t, b.ID, *result.Match.WinnerTeamID)
	assert.Empty(t, result.Updated)
}

func TestDoubleElimination_TwoTeamsMeetTwice(t *testing.T) {
	f := newFixture(t)
	tID, teams := f.createTournament(t, TournamentInput{
		Format: bracket.FormatDoubleElimination,
		Teams:  teamNames(2),
	})

	first := f.findMatch(t, tID, bracket.PhaseBracket, 1, 1)
	result := f.playMatch(t, first.ID, 15, 11)
	require.Len(t, result.Updated, 1)

	grandFinal := f.findMatch(t, tID, bracket.PhaseFinals, 1, 1)
	assert.Equal(t, teams[0].ID, *grandFinal.TeamAID)
	assert.Equal(t, teams[1].ID, *grandFinal.TeamBID)
	assert.Equal(t, bracket.MatchScheduled, grandFinal.Status)
}

func TestDoubleElimination_LosersByeCompletesOnDrop(t *testing.T) {
	f := newFixture(t)
	// 3 teams: the top seed has a bye, so nobody drops from the first match
	tID, teams := f.createTournament(t, TournamentInput{
		Format: bracket.FormatDoubleElimination,
		Teams:  teamNames(3),
	})
	seeds := seedIndex(teams)

	losers1 := f.findMatch(t, tID, bracket.PhaseLosers, 1, 1)
	assert.Equal(t, bracket.MatchScheduled, losers1.Status)
	assert.True(t, losers1.OpenSlot(bracket.SlotA))

	semi := f.findMatch(t, tID, bracket.PhaseBracket, 1, 2)
	result := f.playBySeed(t, semi, seeds)
	assert.Len(t, result.Updated, 3)

	losers1 = f.reload(t, losers1.ID)
	assert.True(t, losers1.IsBye)
	assert.Equal(t, bracket.MatchCompleted, losers1.Status)
	assert.Equal(t, teams[2].ID, *losers1.WinnerTeamID)

	losersFinal := f.findMatch(t, tID, bracket.PhaseLosers, 2, 1)
	assert.Equal(t, teams[2].ID, *losersFinal.TeamAID)
	assert.Nil(t, losersFinal.TeamBID)
	assert.Equal(t, bracket.MatchScheduled, losersFinal.Status)
}

func TestDoubleElimination_CorrectionMovesLoser(t *testing.T) {
	f := newFixture(t)
	tID, teams := f.createTournament(t, TournamentInput{
		Format: bracket.FormatDoubleElimination,
		Teams:  []string{"A", "B", "C", "D"},
	})
	seeds := seedIndex(teams)
	a, c, d := teams[0], teams[2], teams[3]

	semi1 := f.findMatch(t, tID, bracket.PhaseBracket, 1, 1)
	semi2 := f.findMatch(t, tID, bracket.PhaseBracket, 1, 2)
	f.playBySeed(t, semi1, seeds)
	f.playBySeed(t, semi2, seeds)

	losers1 := f.findMatch(t, tID, bracket.PhaseLosers, 1, 1)
	f.playBySeed(t, losers1, seeds)
	losersFinal := f.findMatch(t, tID, bracket.PhaseLosers, 2, 1)
	assert.Equal(t, c.ID, *losersFinal.TeamAID)

	_, err := f.matches.ReopenMatch(f.ctx, f.admin, semi1.ID)
	require.NoError(t, err)
	_, err = f.matches.SetScore(f.ctx, f.admin, semi1.ID, 14, 15)
	require.NoError(t, err)
	_, err = f.matches.CompleteMatch(f.ctx, f.admin, semi1.ID, false)
	require.NoError(t, err)

	winnersFinal := f.findMatch(t, tID, bracket.PhaseBracket, 2, 1)
	assert.Equal(t, d.ID, *winnersFinal.TeamAID)

	// The losers match D had played is replayed with A
	losers1 = f.reload(t, losers1.ID)
	assert.Equal(t, a.ID, *losers1.TeamAID)
	assert.Equal(t, c.ID, *losers1.TeamBID)
	assert.Equal(t, bracket.MatchScheduled, losers1.Status)
	assert.Nil(t, losers1.WinnerTeamID)

	losersFinal = f.reload(t, losersFinal.ID)
	assert.Nil(t, losersFinal.TeamAID)
}
