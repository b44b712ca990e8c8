package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchOngoing   MatchStatus = "ongoing"
	MatchCompleted MatchStatus = "completed"
)

type Phase string

const (
	PhaseBracket    Phase = "bracket"
	PhasePool       Phase = "pool"
	PhaseRoundRobin Phase = "round_robin"
	PhaseSwiss      Phase = "swiss"
	PhaseLosers     Phase = "losers"
	PhaseFinals     Phase = "finals"
)

// Slot identifies one side of a match.
type Slot int

const (
	SlotA Slot = 1
	SlotB Slot = 2
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the tournament for reconstructing the view
	Phase           Phase   `db:"phase" json:"phase"`
	Round           int     `db:"round" json:"round"`
	RoundName       string  `db:"round_name" json:"round_name"`
	BracketPosition int     `db:"bracket_position" json:"bracket_position"`
	Pool            *string `db:"pool" json:"pool,omitempty"`
	MatchNumber     int     `db:"match_number" json:"match_number"`

	TeamAID *uuid.UUID `db:"team_a_id" json:"team_a_id"`
	TeamBID *uuid.UUID `db:"team_b_id" json:"team_b_id"`

	// Matches whose winners fill TeamA / TeamB. Nil when the slot starts with a real team.
	ParentMatchAID *uuid.UUID `db:"parent_match_a_id" json:"parent_match_a_id"`
	ParentMatchBID *uuid.UUID `db:"parent_match_b_id" json:"parent_match_b_id"`
	// Matches whose losers drop into TeamA / TeamB on the losers side.
	LoserParentMatchAID *uuid.UUID `db:"loser_parent_match_a_id" json:"loser_parent_match_a_id,omitempty"`
	LoserParentMatchBID *uuid.UUID `db:"loser_parent_match_b_id" json:"loser_parent_match_b_id,omitempty"`
	IsBye               bool       `db:"is_bye" json:"is_bye"`

	Status       MatchStatus `db:"status" json:"status"`
	ScoreA       int         `db:"score_a" json:"score_a"`
	ScoreB       int         `db:"score_b" json:"score_b"`
	WinnerTeamID *uuid.UUID  `db:"winner_team_id" json:"winner_team_id"`

	// Set while an administrator is correcting a completed match.
	Reopened bool `db:"reopened" json:"reopened"`
	Version  int  `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (m *Match) Team(slot Slot) *uuid.UUID {
	if slot == SlotA {
		return m.TeamAID
	}
	return m.TeamBID
}

func (m *Match) SetTeam(slot Slot, teamID *uuid.UUID) {
	if slot == SlotA {
		m.TeamAID = teamID
	} else {
		m.TeamBID = teamID
	}
}

func (m *Match) Parent(slot Slot) *uuid.UUID {
	if slot == SlotA {
		return m.ParentMatchAID
	}
	return m.ParentMatchBID
}

func (m *Match) LoserParent(slot Slot) *uuid.UUID {
	if slot == SlotA {
		return m.LoserParentMatchAID
	}
	return m.LoserParentMatchBID
}

func (m *Match) setLoserParent(slot Slot, id *uuid.UUID) {
	if slot == SlotA {
		m.LoserParentMatchAID = id
	} else {
		m.LoserParentMatchBID = id
	}
}

func (m *Match) setParent(slot Slot, id *uuid.UUID) {
	if slot == SlotA {
		m.ParentMatchAID = id
	} else {
		m.ParentMatchBID = id
	}
}

// OpenSlot reports whether slot can never be filled: no team and no match
// feeding it.
func (m *Match) OpenSlot(slot Slot) bool {
	return m.Team(slot) == nil && m.Parent(slot) == nil && m.LoserParent(slot) == nil
}

// FedBy returns the slot that the winner of parentID fills.
func (m *Match) FedBy(parentID uuid.UUID) (Slot, bool) {
	if m.ParentMatchAID != nil && *m.ParentMatchAID == parentID {
		return SlotA, true
	}
	if m.ParentMatchBID != nil && *m.ParentMatchBID == parentID {
		return SlotB, true
	}
	return 0, false
}

// FedByLoser returns the slot that the loser of parentID drops into.
func (m *Match) FedByLoser(parentID uuid.UUID) (Slot, bool) {
	if m.LoserParentMatchAID != nil && *m.LoserParentMatchAID == parentID {
		return SlotA, true
	}
	if m.LoserParentMatchBID != nil && *m.LoserParentMatchBID == parentID {
		return SlotB, true
	}
	return 0, false
}

func (m *Match) SlotOf(teamID uuid.UUID) (Slot, bool) {
	if m.TeamAID != nil && *m.TeamAID == teamID {
		return SlotA, true
	}
	if m.TeamBID != nil && *m.TeamBID == teamID {
		return SlotB, true
	}
	return 0, false
}

func (m *Match) HasBothTeams() bool {
	return m.TeamAID != nil && m.TeamBID != nil
}

// Leader returns the team with the strictly higher score. ok is false on a tie.
func (m *Match) Leader() (teamID *uuid.UUID, ok bool) {
	switch {
	case m.ScoreA > m.ScoreB:
		return m.TeamAID, true
	case m.ScoreB > m.ScoreA:
		return m.TeamBID, true
	}
	return nil, false
}

// Loser returns the team that lost a decided match.
func (m *Match) Loser() *uuid.UUID {
	if m.Status != MatchCompleted || m.WinnerTeamID == nil || !m.HasBothTeams() {
		return nil
	}
	if *m.TeamAID == *m.WinnerTeamID {
		return m.TeamBID
	}
	return m.TeamAID
}

func (m *Match) IsWinner(slot Slot) bool {
	return m.Status == MatchCompleted && m.WinnerTeamID != nil && m.Team(slot) != nil && *m.Team(slot) == *m.WinnerTeamID
}

// CompleteAsBye finishes a match that only ever has one real team.
func (m *Match) CompleteAsBye() {
	m.IsBye = true
	m.Status = MatchCompleted
	if m.TeamAID != nil {
		m.WinnerTeamID = m.TeamAID
	} else {
		m.WinnerTeamID = m.TeamBID
	}
}

// ResetResult puts a match back to scheduled with an empty score.
func (m *Match) ResetResult() {
	m.Status = MatchScheduled
	m.ScoreA = 0
	m.ScoreB = 0
	m.WinnerTeamID = nil
	m.Reopened = false
}
