package store

import (
	"context"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	insertMatchQuery = `INSERT INTO matches (id, tournament_id, phase, round, round_name, bracket_position, pool, match_number,
		team_a_id, team_b_id, parent_match_a_id, parent_match_b_id, loser_parent_match_a_id, loser_parent_match_b_id,
		is_bye, status, score_a, score_b, winner_team_id)
		VALUES (:id, :tournament_id, :phase, :round, :round_name, :bracket_position, :pool, :match_number,
		:team_a_id, :team_b_id, :parent_match_a_id, :parent_match_b_id, :loser_parent_match_a_id, :loser_parent_match_b_id,
		:is_bye, :status, :score_a, :score_b, :winner_team_id)`

	// Only succeeds when nobody else has written the match since it was read.
	updateMatchQuery = `UPDATE matches SET
		team_a_id = :team_a_id,
		team_b_id = :team_b_id,
		is_bye = :is_bye,
		status = :status,
		score_a = :score_a,
		score_b = :score_b,
		winner_team_id = :winner_team_id,
		reopened = :reopened,
		version = version + 1,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = :id AND version = :version`
)

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	for i := range matches {
		if _, err := tx.NamedExecContext(ctx, insertMatchQuery, &matches[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMatches removes every match of a tournament. Attendance goes with them.
func (s *TournamentStore) DeleteMatches(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM matches WHERE tournament_id = ?"), tournamentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TournamentStore) DeleteMatchesByPhase(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, phase bracket.Phase) (int64, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM matches WHERE tournament_id = ? AND phase = ?"), tournamentID, phase)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func getMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err, "match", id)
	}
	return &match, nil
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind("SELECT * FROM matches WHERE tournament_id = ? ORDER BY match_number ASC"), tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchesByPhaseTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, phase bracket.Phase) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := tx.SelectContext(ctx, &matches, tx.Rebind(`SELECT * FROM matches WHERE tournament_id = ? AND phase = ?
		ORDER BY round ASC, match_number ASC`), tournamentID, phase)
	return matches, err
}

func (s *TournamentStore) CountMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM matches WHERE tournament_id = ?"), tournamentID)
	return count, err
}

func (s *TournamentStore) MaxMatchNumberTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COALESCE(MAX(match_number), 0) FROM matches WHERE tournament_id = ?"), tournamentID)
	return n, err
}

// GetChildMatchesTx returns the matches fed by the winner or the loser of parentID.
func (s *TournamentStore) GetChildMatchesTx(ctx context.Context, tx *sqlx.Tx, parentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := tx.SelectContext(ctx, &matches, tx.Rebind(`SELECT * FROM matches
		WHERE parent_match_a_id = ? OR parent_match_b_id = ?
			OR loser_parent_match_a_id = ? OR loser_parent_match_b_id = ?
		ORDER BY phase ASC, round ASC, bracket_position ASC`), parentID, parentID, parentID, parentID)
	return matches, err
}

// UpdateMatch writes the mutable fields of a match if its version is still
// the one that was read, and bumps the version on success.
func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	res, err := tx.NamedExecContext(ctx, updateMatchQuery, match)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleVersion
	}
	match.Version++
	return nil
}

func (s *TournamentStore) UpsertAttendance(ctx context.Context, tx *sqlx.Tx, record *bracket.AttendanceRecord) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO attendance (match_id, player_id, status, recorded_by, recorded_at)
		VALUES (:match_id, :player_id, :status, :recorded_by, :recorded_at)
		ON CONFLICT (match_id, player_id) DO UPDATE SET
			status = excluded.status,
			recorded_by = excluded.recorded_by,
			recorded_at = excluded.recorded_at`, record)
	return err
}

// CountAttendanceTx counts how many of the given players have a record for the match.
func (s *TournamentStore) CountAttendanceTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, playerIDs []uuid.UUID) (int, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("SELECT COUNT(*) FROM attendance WHERE match_id = ? AND player_id IN (?)", matchID, playerIDs)
	if err != nil {
		return 0, err
	}
	var count int
	err = tx.GetContext(ctx, &count, tx.Rebind(query), args...)
	return count, err
}

func (s *TournamentStore) GetAttendance(ctx context.Context, matchID uuid.UUID) ([]bracket.AttendanceRecord, error) {
	var records []bracket.AttendanceRecord
	err := s.db.SelectContext(ctx, &records, s.db.Rebind("SELECT * FROM attendance WHERE match_id = ? ORDER BY recorded_at ASC, player_id ASC"), matchID)
	return records, err
}

func (s *TournamentStore) DeleteAttendanceTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM attendance WHERE match_id = ?"), matchID)
	return err
}
