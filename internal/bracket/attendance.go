package bracket

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

type AttendanceRecord struct {
	MatchID    uuid.UUID        `db:"match_id" json:"match_id"`
	PlayerID   uuid.UUID        `db:"player_id" json:"player_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	RecordedBy uuid.UUID        `db:"recorded_by" json:"recorded_by"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
}
