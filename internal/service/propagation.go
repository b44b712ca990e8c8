package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// propagation pushes the teams of a completed match into the matches it
// feeds. All reads and writes go through the completing transaction.
type propagation struct {
	store   *store.TournamentStore
	tx      *sqlx.Tx
	updated []bracket.Match
	seen    map[uuid.UUID]int
}

func newPropagation(store *store.TournamentStore, tx *sqlx.Tx) *propagation {
	return &propagation{store: store, tx: tx, seen: make(map[uuid.UUID]int)}
}

func (p *propagation) save(ctx context.Context, m *bracket.Match) error {
	if err := p.store.UpdateMatch(ctx, p.tx, m); err != nil {
		return fmt.Errorf("failed to update match %s: %w", m.ID, err)
	}
	if i, ok := p.seen[m.ID]; ok {
		p.updated[i] = *m
		return nil
	}
	p.seen[m.ID] = len(p.updated)
	p.updated = append(p.updated, *m)
	return nil
}

func otherSlot(slot bracket.Slot) bracket.Slot {
	if slot == bracket.SlotA {
		return bracket.SlotB
	}
	return bracket.SlotA
}

// advance fills the child slots fed by completed: the winner moves on and, on
// the losers side, the loser drops down. Outside a correction it only touches
// the immediate children; byes it completes are followed on. In a correction
// every progressed match downstream is repaired.
func (p *propagation) advance(ctx context.Context, completed *bracket.Match, correction bool) error {
	if completed.WinnerTeamID == nil {
		return nil
	}

	children, err := p.store.GetChildMatchesTx(ctx, p.tx, completed.ID)
	if err != nil {
		return fmt.Errorf("failed to get child matches: %w", err)
	}

	for i := range children {
		child := &children[i]
		if slot, ok := child.FedBy(completed.ID); ok {
			if err := p.fill(ctx, child, slot, completed.WinnerTeamID, correction); err != nil {
				return err
			}
		}
		if slot, ok := child.FedByLoser(completed.ID); ok {
			if err := p.fill(ctx, child, slot, completed.Loser(), correction); err != nil {
				return err
			}
		}
	}

	return nil
}

// fill puts team into slot of child. A child left with an open opposite slot
// is completed as a bye and advanced in turn.
func (p *propagation) fill(ctx context.Context, child *bracket.Match, slot bracket.Slot, team *uuid.UUID, correction bool) error {
	if team == nil {
		return nil
	}

	current := child.Team(slot)
	if current != nil && *current == *team {
		return nil
	}

	if !correction {
		if current != nil || child.Status != bracket.MatchScheduled {
			return fmt.Errorf("%w: match %d", ErrSlotOccupied, child.MatchNumber)
		}
	}

	if child.Status != bracket.MatchScheduled {
		if err := p.reset(ctx, child); err != nil {
			return err
		}
	}

	t := *team
	child.SetTeam(slot, &t)

	if child.OpenSlot(otherSlot(slot)) {
		child.CompleteAsBye()
		if err := p.save(ctx, child); err != nil {
			return err
		}
		return p.advance(ctx, child, correction)
	}

	return p.save(ctx, child)
}

// reset returns a progressed match to scheduled and clears whatever its old
// winner and loser had already reached further on.
func (p *propagation) reset(ctx context.Context, m *bracket.Match) error {
	oldWinner := m.WinnerTeamID
	oldLoser := m.Loser()
	wasCompleted := m.Status == bracket.MatchCompleted

	m.ResetResult()
	m.IsBye = false
	if err := p.store.DeleteAttendanceTx(ctx, p.tx, m.ID); err != nil {
		return fmt.Errorf("failed to clear attendance: %w", err)
	}

	if !wasCompleted || oldWinner == nil {
		return nil
	}
	return p.clearDownstream(ctx, m.ID, oldWinner, oldLoser)
}

// clearDownstream empties every slot that parentID filled with its winner or
// loser, and resets the matches that had already been played with them.
func (p *propagation) clearDownstream(ctx context.Context, parentID uuid.UUID, winner, loser *uuid.UUID) error {
	children, err := p.store.GetChildMatchesTx(ctx, p.tx, parentID)
	if err != nil {
		return fmt.Errorf("failed to get child matches: %w", err)
	}

	for i := range children {
		child := &children[i]
		if slot, ok := child.FedBy(parentID); ok {
			if err := p.vacate(ctx, child, slot, winner); err != nil {
				return err
			}
		}
		if slot, ok := child.FedByLoser(parentID); ok {
			if err := p.vacate(ctx, child, slot, loser); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *propagation) vacate(ctx context.Context, child *bracket.Match, slot bracket.Slot, team *uuid.UUID) error {
	current := child.Team(slot)
	if team == nil || current == nil || *current != *team {
		return nil
	}

	if child.Status != bracket.MatchScheduled {
		if err := p.reset(ctx, child); err != nil {
			return err
		}
	}
	child.SetTeam(slot, nil)
	return p.save(ctx, child)
}
