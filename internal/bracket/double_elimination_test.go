package bracket

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byPhase(matches []Match) map[Phase][]Match {
	phases := make(map[Phase][]Match)
	for _, m := range matches {
		phases[m.Phase] = append(phases[m.Phase], m)
	}
	return phases
}

func findMatch(t *testing.T, matches []Match, phase Phase, round, position int) Match {
	t.Helper()
	for _, m := range matches {
		if m.Phase == phase && m.Round == round && m.BracketPosition == position {
			return m
		}
	}
	require.Failf(t, "match not found", "%s round %d position %d", phase, round, position)
	return Match{}
}

func TestDoubleElimination_Structure(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			matches, err := DoubleElimination(testTournamentID, makeTeams(n))
			require.NoError(t, err)

			size := calcBracketSize(n)
			phases := byPhase(matches)
			assert.Len(t, phases[PhaseBracket], size-1)
			require.Len(t, phases[PhaseFinals], 1)
			assert.LessOrEqual(t, len(phases[PhaseLosers]), size-2)
			if n == size {
				assert.Len(t, matches, 2*size-2)
			}

			ids := make(map[uuid.UUID]Match, len(matches))
			for i, m := range matches {
				assert.Equal(t, i+1, m.MatchNumber)
				ids[m.ID] = m
			}
			assert.Equal(t, PhaseFinals, matches[len(matches)-1].Phase)

			winnerFeeds := make(map[uuid.UUID]int)
			loserFeeds := make(map[uuid.UUID]int)
			for _, m := range matches {
				for _, slot := range []Slot{SlotA, SlotB} {
					if id := m.Parent(slot); id != nil {
						require.Contains(t, ids, *id)
						winnerFeeds[*id]++
					}
					if id := m.LoserParent(slot); id != nil {
						require.Contains(t, ids, *id)
						assert.Equal(t, PhaseBracket, ids[*id].Phase, "only the winners side drops teams")
						loserFeeds[*id]++
					}
				}
				if m.Phase == PhaseLosers {
					assert.False(t, m.OpenSlot(SlotA) && m.OpenSlot(SlotB), "match %d can never be played", m.MatchNumber)
				}
			}

			for _, m := range matches {
				if m.Phase == PhaseFinals {
					assert.Zero(t, winnerFeeds[m.ID])
					continue
				}
				assert.Equal(t, 1, winnerFeeds[m.ID], "winner of match %d", m.MatchNumber)
				if m.Phase == PhaseBracket {
					expected := 1
					if m.IsBye {
						expected = 0
					}
					assert.Equal(t, expected, loserFeeds[m.ID], "loser of match %d", m.MatchNumber)
				}
			}
		})
	}
}

func TestDoubleElimination_TwoTeams(t *testing.T) {
	matches, err := DoubleElimination(testTournamentID, makeTeams(2))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	first, final := matches[0], matches[1]
	assert.Equal(t, "Winners Final", first.RoundName)
	assert.Equal(t, "Grand Final", final.RoundName)
	assert.Equal(t, first.ID, *final.ParentMatchAID)
	assert.Equal(t, first.ID, *final.LoserParentMatchBID)
	assert.Nil(t, final.ParentMatchBID)
}

func TestDoubleElimination_FourTeams(t *testing.T) {
	matches, err := DoubleElimination(testTournamentID, makeTeams(4))
	require.NoError(t, err)
	require.Len(t, matches, 6)

	semi1 := findMatch(t, matches, PhaseBracket, 1, 1)
	semi2 := findMatch(t, matches, PhaseBracket, 1, 2)
	winnersFinal := findMatch(t, matches, PhaseBracket, 2, 1)
	losers1 := findMatch(t, matches, PhaseLosers, 1, 1)
	losersFinal := findMatch(t, matches, PhaseLosers, 2, 1)
	grandFinal := findMatch(t, matches, PhaseFinals, 1, 1)

	assert.Equal(t, "Winners Semifinal", semi1.RoundName)
	assert.Equal(t, "Losers Round 1", losers1.RoundName)
	assert.Equal(t, "Losers Final", losersFinal.RoundName)

	assert.Equal(t, semi1.ID, *losers1.LoserParentMatchAID)
	assert.Equal(t, semi2.ID, *losers1.LoserParentMatchBID)
	assert.Nil(t, losers1.ParentMatchAID)

	assert.Equal(t, losers1.ID, *losersFinal.ParentMatchAID)
	assert.Equal(t, winnersFinal.ID, *losersFinal.LoserParentMatchBID)

	assert.Equal(t, winnersFinal.ID, *grandFinal.ParentMatchAID)
	assert.Equal(t, losersFinal.ID, *grandFinal.ParentMatchBID)
	assert.Equal(t, 6, grandFinal.MatchNumber)
}

func TestDoubleElimination_ByesLeaveLosersSlotsOpen(t *testing.T) {
	// 5 teams -> 8 slots. Pairs: 1v8(bye), 4v5, 2v7(bye), 3v6(bye)
	matches, err := DoubleElimination(testTournamentID, makeTeams(5))
	require.NoError(t, err)
	assert.Len(t, matches, 13)

	phases := byPhase(matches)
	assert.Len(t, phases[PhaseLosers], 5)

	// Only the loser of 4v5 reaches the first losers round
	losers1 := findMatch(t, matches, PhaseLosers, 1, 1)
	assert.Nil(t, losers1.LoserParentMatchAID)
	assert.Equal(t, findMatch(t, matches, PhaseBracket, 1, 2).ID, *losers1.LoserParentMatchBID)
	assert.True(t, losers1.OpenSlot(SlotA))

	// Its neighbour would only have taken losers of byes
	for _, m := range phases[PhaseLosers] {
		assert.False(t, m.Round == 1 && m.BracketPosition == 2)
	}

	// Drop rounds take winners side losers in reverse order
	drop1 := findMatch(t, matches, PhaseLosers, 2, 1)
	drop2 := findMatch(t, matches, PhaseLosers, 2, 2)
	assert.Equal(t, losers1.ID, *drop1.ParentMatchAID)
	assert.Equal(t, findMatch(t, matches, PhaseBracket, 2, 2).ID, *drop1.LoserParentMatchBID)
	assert.Nil(t, drop2.ParentMatchAID)
	assert.Equal(t, findMatch(t, matches, PhaseBracket, 2, 1).ID, *drop2.LoserParentMatchBID)
	assert.True(t, drop2.OpenSlot(SlotA))
}

func TestBuild_DoubleElimination(t *testing.T) {
	matches, err := Build(testTournamentID, FormatDoubleElimination, makeTeams(8), Options{})
	require.NoError(t, err)
	assert.Len(t, matches, 14)
	assert.True(t, FormatDoubleElimination.Valid())
}
