package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Name         string    `db:"name" json:"name"`
	Seed         int       `db:"seed" json:"seed"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Player is a registered member of a team's roster. Attendance is expected
// for every player on the roster of both teams before a match can be scored.
type Player struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TeamID       uuid.UUID `db:"team_id" json:"team_id"`
	Name         string    `db:"name" json:"name"`
	JerseyNumber *int      `db:"jersey_number" json:"jersey_number,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
