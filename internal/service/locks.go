package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// maxAttempts bounds how often a lifecycle operation is replayed after losing
// a version race.
const maxAttempts = 3

// TournamentLocks hands out one RWMutex per tournament. Match operations hold
// the read side, schedule regeneration holds the write side.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.RWMutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[uuid.UUID]*sync.RWMutex)}
}

func (l *TournamentLocks) get(tournamentID uuid.UUID) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[tournamentID]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[tournamentID] = lock
	}
	return lock
}

// Shared runs fn while no regeneration of the tournament is in progress.
func (l *TournamentLocks) Shared(tournamentID uuid.UUID, fn func() error) error {
	lock := l.get(tournamentID)
	lock.RLock()
	defer lock.RUnlock()
	return fn()
}

// Exclusive runs fn with every other operation on the tournament blocked.
func (l *TournamentLocks) Exclusive(tournamentID uuid.UUID, fn func() error) error {
	lock := l.get(tournamentID)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// withRetry replays op while it fails with ErrConcurrentModification, giving
// up after maxAttempts.
func withRetry(ctx context.Context, name string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if !errors.Is(err, ErrConcurrentModification) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Debug("version conflict, retrying", "operation", name, "attempt", attempt)
	}
	return err
}
