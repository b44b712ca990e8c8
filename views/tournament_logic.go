package views

import (
	"sort"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/google/uuid"
)

// Section is one column group of the tournament page: a pool, the round
// robin table, the swiss rounds or the elimination bracket.
type Section struct {
	Title     string
	Phase     bracket.Phase
	RoundNums []int
	Rounds    map[int][]bracket.Match
}

type BracketData struct {
	Sections []Section
	TeamMap  map[uuid.UUID]bracket.Team
}

func (d BracketData) TeamName(id *uuid.UUID) string {
	if id == nil {
		return "TBD"
	}
	if t, ok := d.TeamMap[*id]; ok {
		return t.Name
	}
	return "Unknown"
}

var phaseOrder = map[bracket.Phase]int{
	bracket.PhasePool:       0,
	bracket.PhaseRoundRobin: 1,
	bracket.PhaseSwiss:      2,
	bracket.PhaseBracket:    3,
	bracket.PhaseLosers:     4,
	bracket.PhaseFinals:     5,
}

func sectionTitle(m bracket.Match) string {
	switch m.Phase {
	case bracket.PhasePool:
		if m.Pool != nil {
			return "Pool " + *m.Pool
		}
		return "Pools"
	case bracket.PhaseRoundRobin:
		return "Round Robin"
	case bracket.PhaseSwiss:
		return "Swiss"
	case bracket.PhaseLosers:
		return "Losers Bracket"
	case bracket.PhaseFinals:
		return "Grand Final"
	}
	return "Bracket"
}

func PrepareBracketData(teams []bracket.Team, matches []bracket.Match) BracketData {
	teamMap := make(map[uuid.UUID]bracket.Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}

	byTitle := make(map[string]*Section)
	var sections []*Section

	for _, m := range matches {
		title := sectionTitle(m)
		s, ok := byTitle[title]
		if !ok {
			s = &Section{Title: title, Phase: m.Phase, Rounds: make(map[int][]bracket.Match)}
			byTitle[title] = s
			sections = append(sections, s)
		}
		if _, exists := s.Rounds[m.Round]; !exists {
			s.RoundNums = append(s.RoundNums, m.Round)
		}
		s.Rounds[m.Round] = append(s.Rounds[m.Round], m)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		pi, pj := phaseOrder[sections[i].Phase], phaseOrder[sections[j].Phase]
		if pi != pj {
			return pi < pj
		}
		return sections[i].Title < sections[j].Title
	})

	data := BracketData{TeamMap: teamMap}
	for _, s := range sections {
		sort.Ints(s.RoundNums)
		sortRounds(s.Rounds, s.RoundNums)
		data.Sections = append(data.Sections, *s)
	}
	return data
}

func sortRounds(rounds map[int][]bracket.Match, roundNums []int) {
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			if rounds[r][i].BracketPosition != rounds[r][j].BracketPosition {
				return rounds[r][i].BracketPosition < rounds[r][j].BracketPosition
			}
			return rounds[r][i].MatchNumber < rounds[r][j].MatchNumber
		})
	}
}
