package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Format string

const (
	FormatSingleElimination Format = "single"
	FormatDoubleElimination Format = "double"
	FormatPoolPlay          Format = "pool_play"
	FormatRoundRobin        Format = "round_robin"
	FormatSwiss             Format = "swiss"
)

func (f Format) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatPoolPlay, FormatRoundRobin, FormatSwiss:
		return true
	}
	return false
}

type Tournament struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OwnerID        uuid.UUID `db:"owner_id" json:"owner_id"`
	Name           string    `db:"name" json:"name"`
	Format         Format    `db:"format" json:"format"`
	PoolCount      int       `db:"pool_count" json:"pool_count"`
	AdvancePerPool int       `db:"advance_per_pool" json:"advance_per_pool"`
	AllowDraws     bool      `db:"allow_draws" json:"allow_draws"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
