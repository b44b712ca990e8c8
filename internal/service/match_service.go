package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type MatchService struct {
	db     *sqlx.DB
	store  *store.TournamentStore
	roster RosterProvider
	locks  *TournamentLocks
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, roster RosterProvider, locks *TournamentLocks) *MatchService {
	return &MatchService{db: db, store: store, roster: roster, locks: locks}
}

type MatchData struct {
	Match       *bracket.Match
	TeamA       *bracket.Team
	TeamB       *bracket.Team
	Attendance  []bracket.AttendanceRecord
	NextMatchID *uuid.UUID
}

// CompletionResult is a completed match and every match the completion changed.
type CompletionResult struct {
	Match   bracket.Match   `json:"match"`
	Updated []bracket.Match `json:"updated"`
}

// matchRoster holds the expected players of both teams of a match.
type matchRoster struct {
	teamA []uuid.UUID
	teamB []uuid.UUID
}

func (r *matchRoster) expected() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.teamA)+len(r.teamB))
	out = append(out, r.teamA...)
	return append(out, r.teamB...)
}

func (r *matchRoster) contains(playerID uuid.UUID) bool {
	for _, id := range r.expected() {
		if id == playerID {
			return true
		}
	}
	return false
}

func requireScorer(actor users.Actor) error {
	if actor.Role != users.RoleAdmin && actor.Role != users.RoleVolunteer {
		return ErrForbidden
	}
	return nil
}

func sameTeam(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *MatchService) loadRoster(ctx context.Context, match *bracket.Match) (*matchRoster, error) {
	roster := &matchRoster{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.roster.ExpectedPlayers(gctx, match.TournamentID, *match.TeamAID)
		roster.teamA = ids
		return err
	})
	g.Go(func() error {
		ids, err := s.roster.ExpectedPlayers(gctx, match.TournamentID, *match.TeamBID)
		roster.teamB = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load rosters: %w", err)
	}
	return roster, nil
}

// mutate runs fn against a fresh copy of the match inside a transaction,
// retrying on version conflicts. Rosters are loaded before the transaction
// when withRoster is set and both teams are known.
func (s *MatchService) mutate(ctx context.Context, name string, matchID uuid.UUID, withRoster bool,
	fn func(tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error) error {
	return withRetry(ctx, name, func() error {
		snapshot, err := s.store.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}

		return s.locks.Shared(snapshot.TournamentID, func() error {
			var roster *matchRoster
			if withRoster && snapshot.HasBothTeams() {
				roster, err = s.loadRoster(ctx, snapshot)
				if err != nil {
					return err
				}
			}

			tx, err := s.db.BeginTxx(ctx, nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			match, err := s.store.GetMatchTx(ctx, tx, matchID)
			if err != nil {
				return err
			}
			// The roster belongs to the teams that were read before the transaction
			if withRoster && (!sameTeam(snapshot.TeamAID, match.TeamAID) || !sameTeam(snapshot.TeamBID, match.TeamBID)) {
				return ErrConcurrentModification
			}

			if err := fn(tx, match, roster); err != nil {
				return err
			}
			return tx.Commit()
		})
	})
}

func (s *MatchService) checkAttendance(ctx context.Context, tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
	expected := roster.expected()
	recorded, err := s.store.CountAttendanceTx(ctx, tx, match.ID, expected)
	if err != nil {
		return fmt.Errorf("failed to count attendance: %w", err)
	}
	if recorded < len(expected) {
		return &AttendanceIncompleteError{Recorded: recorded, Expected: len(expected)}
	}
	return nil
}

// requireOngoing is the common precondition of the scoring operations.
func (s *MatchService) requireOngoing(ctx context.Context, tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
	switch match.Status {
	case bracket.MatchCompleted:
		return ErrMatchClosed
	case bracket.MatchScheduled:
		return ErrMatchNotOngoing
	}
	if roster == nil {
		return ErrTeamsNotSet
	}
	return s.checkAttendance(ctx, tx, match, roster)
}

func (s *MatchService) RecordAttendance(ctx context.Context, actor users.Actor, matchID, playerID uuid.UUID, status bracket.AttendanceStatus) (*bracket.AttendanceRecord, error) {
	if err := requireScorer(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAttendanceStatus, status)
	}

	var record *bracket.AttendanceRecord
	err := s.mutate(ctx, "record_attendance", matchID, true, func(tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
		if match.Status == bracket.MatchCompleted {
			return ErrMatchClosed
		}
		if roster == nil {
			return ErrTeamsNotSet
		}
		if !roster.contains(playerID) {
			return fmt.Errorf("player %s is not on either roster: %w", playerID, ErrNotFound)
		}

		record = &bracket.AttendanceRecord{
			MatchID:    match.ID,
			PlayerID:   playerID,
			Status:     status,
			RecordedBy: actor.UserID,
			RecordedAt: time.Now().UTC(),
		}
		if err := s.store.UpsertAttendance(ctx, tx, record); err != nil {
			return err
		}
		// Attendance counts as a write to the match
		return s.store.UpdateMatch(ctx, tx, match)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *MatchService) StartMatch(ctx context.Context, actor users.Actor, matchID uuid.UUID) (*bracket.Match, error) {
	if err := requireScorer(actor); err != nil {
		return nil, err
	}

	var started *bracket.Match
	err := s.mutate(ctx, "start_match", matchID, true, func(tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
		switch match.Status {
		case bracket.MatchCompleted:
			return ErrMatchClosed
		case bracket.MatchOngoing:
			return ErrInvalidTransition
		}
		if roster == nil {
			return ErrTeamsNotSet
		}
		if err := s.checkAttendance(ctx, tx, match, roster); err != nil {
			return err
		}

		match.Status = bracket.MatchOngoing
		if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
			return err
		}
		started = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// RecordScoreEvent adds points to one team's running score.
func (s *MatchService) RecordScoreEvent(ctx context.Context, actor users.Actor, matchID, teamID uuid.UUID, points int) (*bracket.Match, error) {
	if err := requireScorer(actor); err != nil {
		return nil, err
	}
	if points < 1 {
		return nil, fmt.Errorf("%w: points must be at least 1, got %d", ErrInvalidScore, points)
	}

	var scored *bracket.Match
	err := s.mutate(ctx, "record_score_event", matchID, true, func(tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
		if err := s.requireOngoing(ctx, tx, match, roster); err != nil {
			return err
		}
		slot, ok := match.SlotOf(teamID)
		if !ok {
			return fmt.Errorf("team %s is not playing in this match: %w", teamID, ErrNotFound)
		}

		if slot == bracket.SlotA {
			match.ScoreA += points
		} else {
			match.ScoreB += points
		}
		if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
			return err
		}
		scored = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// SetScore overwrites both scores.
func (s *MatchService) SetScore(ctx context.Context, actor users.Actor, matchID uuid.UUID, scoreA, scoreB int) (*bracket.Match, error) {
	if err := requireScorer(actor); err != nil {
		return nil, err
	}
	if scoreA < 0 || scoreB < 0 {
		return nil, fmt.Errorf("%w: got %d-%d", ErrInvalidScore, scoreA, scoreB)
	}

	var scored *bracket.Match
	err := s.mutate(ctx, "set_score", matchID, true, func(tx *sqlx.Tx, match *bracket.Match, roster *matchRoster) error {
		if err := s.requireOngoing(ctx, tx, match, roster); err != nil {
			return err
		}

		match.ScoreA = scoreA
		match.ScoreB = scoreB
		if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
			return err
		}
		scored = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// CompleteMatch decides the winner and advances it before returning. With
// force an administrator may complete a match that never started.
func (s *MatchService) CompleteMatch(ctx context.Context, actor users.Actor, matchID uuid.UUID, force bool) (*CompletionResult, error) {
	if err := requireScorer(actor); err != nil {
		return nil, err
	}
	if force && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.store.GetTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}

	var result *CompletionResult
	err = s.mutate(ctx, "complete_match", matchID, false, func(tx *sqlx.Tx, match *bracket.Match, _ *matchRoster) error {
		switch match.Status {
		case bracket.MatchCompleted:
			return ErrMatchClosed
		case bracket.MatchScheduled:
			if !force {
				return ErrMatchNotOngoing
			}
		}
		if !match.HasBothTeams() {
			return ErrTeamsNotSet
		}

		winner, decided := match.Leader()
		if !decided {
			if !tournament.AllowDraws {
				return ErrTiedScore
			}
			children, err := s.store.GetChildMatchesTx(ctx, tx, match.ID)
			if err != nil {
				return err
			}
			// A draw has nobody to send on
			if len(children) > 0 {
				return ErrTiedScore
			}
		}

		correction := match.Reopened
		match.Status = bracket.MatchCompleted
		match.WinnerTeamID = winner
		match.Reopened = false
		if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
			return err
		}

		p := newPropagation(s.store, tx)
		if err := p.advance(ctx, match, correction); err != nil {
			return err
		}

		result = &CompletionResult{Match: *match, Updated: p.updated}
		slog.Info("match completed",
			"match_id", match.ID,
			"score", fmt.Sprintf("%d-%d", match.ScoreA, match.ScoreB),
			"correction", correction,
			"downstream_updates", len(p.updated),
			"actor", actor.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReopenMatch puts a completed match back in play so an administrator can fix
// its score. Completing it again repairs everything downstream.
func (s *MatchService) ReopenMatch(ctx context.Context, actor users.Actor, matchID uuid.UUID) (*bracket.Match, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var reopened *bracket.Match
	err := s.mutate(ctx, "reopen_match", matchID, false, func(tx *sqlx.Tx, match *bracket.Match, _ *matchRoster) error {
		if match.Status != bracket.MatchCompleted {
			return fmt.Errorf("%w: only completed matches can be reopened", ErrInvalidTransition)
		}
		if match.IsBye {
			return fmt.Errorf("%w: byes cannot be reopened", ErrInvalidTransition)
		}

		match.Status = bracket.MatchOngoing
		match.WinnerTeamID = nil
		match.Reopened = true
		if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
			return err
		}
		reopened = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("match reopened for correction", "match_id", matchID, "actor", actor.UserID)
	return reopened, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

func (s *MatchService) ListMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	if _, err := s.store.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.store.GetMatches(ctx, tournamentID)
}

func (s *MatchService) MatchAttendance(ctx context.Context, matchID uuid.UUID) ([]bracket.AttendanceRecord, error) {
	if _, err := s.store.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return s.store.GetAttendance(ctx, matchID)
}

func (s *MatchService) GetMatchViewData(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	data := &MatchData{Match: match}
	if match.TeamAID != nil {
		if data.TeamA, err = s.store.GetTeam(ctx, *match.TeamAID); err != nil {
			return nil, fmt.Errorf("failed to get team A: %w", err)
		}
	}
	if match.TeamBID != nil {
		if data.TeamB, err = s.store.GetTeam(ctx, *match.TeamBID); err != nil {
			return nil, fmt.Errorf("failed to get team B: %w", err)
		}
	}

	if data.Attendance, err = s.store.GetAttendance(ctx, matchID); err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	matches, err := s.store.GetMatches(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next match: %w", err)
	}
	for _, m := range matches {
		if _, ok := m.FedBy(match.ID); ok {
			id := m.ID
			data.NextMatchID = &id
			break
		}
	}

	return data, nil
}
