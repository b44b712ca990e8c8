package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// DoubleElimination builds a winners bracket, a losers bracket fed by the
// teams knocked out of the winners bracket, and a grand final between the two
// champions. A team is out after its second loss.
//
// Byes in the first winners round produce no loser, so the losers bracket
// slots they would feed start open. Losers matches that can never receive a
// team are left out.
func DoubleElimination(tournamentID uuid.UUID, teams []Team) ([]Match, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	winners, winnersRounds := eliminationTree(tournamentID, teams)
	for i := range winners {
		winners[i].RoundName = "Winners " + winners[i].RoundName
	}
	losers := losersBracket(tournamentID, winnersRounds)

	final := newMatch(tournamentID, PhaseFinals, "", 1, 1)
	final.RoundName = "Grand Final"
	winnersFinal := MatchID(tournamentID, PhaseBracket, "", winnersRounds, 1)
	final.ParentMatchAID = &winnersFinal
	if len(losers) == 0 {
		// Two teams: the loser of the only winners match gets a second chance
		droppedFrom := winnersFinal
		final.LoserParentMatchBID = &droppedFrom
	} else {
		losersFinal := MatchID(tournamentID, PhaseLosers, "", losersRounds(winnersRounds), 1)
		final.ParentMatchBID = &losersFinal
	}

	losers = pruneLosers(winners, losers, &final)

	numberMatches(winners, 1)
	numberMatches(losers, len(winners)+1)
	final.MatchNumber = len(winners) + len(losers) + 1

	matches := make([]Match, 0, len(winners)+len(losers)+1)
	matches = append(matches, winners...)
	matches = append(matches, losers...)
	return append(matches, final), nil
}

func losersRounds(winnersRounds int) int {
	return 2 * (winnersRounds - 1)
}

// losersBracket lays out the losers side in round order. Odd rounds after the
// first play the survivors against each other; even rounds take in the losers
// of the next winners round, in reverse order to avoid early rematches.
func losersBracket(tournamentID uuid.UUID, winnersRounds int) []Match {
	rounds := losersRounds(winnersRounds)
	var matches []Match

	for r := 1; r <= rounds; r++ {
		count := 1 << (winnersRounds - 1 - (r+1)/2)

		for p := 1; p <= count; p++ {
			m := newMatch(tournamentID, PhaseLosers, "", r, p)
			m.RoundName = losersRoundName(rounds, r)

			switch {
			case r == 1:
				a := MatchID(tournamentID, PhaseBracket, "", 1, 2*p-1)
				b := MatchID(tournamentID, PhaseBracket, "", 1, 2*p)
				m.LoserParentMatchAID = &a
				m.LoserParentMatchBID = &b
			case r%2 == 0:
				a := MatchID(tournamentID, PhaseLosers, "", r-1, p)
				b := MatchID(tournamentID, PhaseBracket, "", r/2+1, count+1-p)
				m.ParentMatchAID = &a
				m.LoserParentMatchBID = &b
			default:
				a := MatchID(tournamentID, PhaseLosers, "", r-1, 2*p-1)
				b := MatchID(tournamentID, PhaseLosers, "", r-1, 2*p)
				m.ParentMatchAID = &a
				m.ParentMatchBID = &b
			}

			matches = append(matches, m)
		}
	}

	return matches
}

func losersRoundName(totalRounds, round int) string {
	if round == totalRounds {
		return "Losers Final"
	}
	return fmt.Sprintf("Losers Round %d", round)
}

// pruneLosers detaches the losers side from first round byes and drops the
// matches left with two open slots. losers must be in round order.
func pruneLosers(winners, losers []Match, final *Match) []Match {
	byes := make(map[uuid.UUID]bool)
	for _, m := range winners {
		if m.IsBye {
			byes[m.ID] = true
		}
	}

	dropped := make(map[uuid.UUID]bool)
	detach := func(m *Match) {
		for _, slot := range []Slot{SlotA, SlotB} {
			if id := m.LoserParent(slot); id != nil && byes[*id] {
				m.setLoserParent(slot, nil)
			}
			if id := m.Parent(slot); id != nil && dropped[*id] {
				m.setParent(slot, nil)
			}
		}
	}

	kept := make([]Match, 0, len(losers))
	for i := range losers {
		m := losers[i]
		detach(&m)
		if m.OpenSlot(SlotA) && m.OpenSlot(SlotB) {
			dropped[m.ID] = true
			continue
		}
		kept = append(kept, m)
	}
	detach(final)

	return kept
}
