package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeRange is a declared working window, "HH:MM" 24h clock,
// start inclusive and end exclusive.
type TimeRange struct {
	Start string `json:"start" binding:"required,clock"`
	End   string `json:"end" binding:"required,clock"`
}

// TimeRanges is stored as a JSONB column.
type TimeRanges []TimeRange

func (t TimeRanges) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]TimeRange{})
	}
	return json.Marshal(t)
}

func (t *TimeRanges) Scan(src interface{}) error {
	if src == nil {
		*t = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for TimeRanges: %T", src)
	}
	return json.Unmarshal(b, t)
}

// DayAvailability is one therapist's declared schedule for one calendar date.
type DayAvailability struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TherapistID uuid.UUID  `db:"therapist_id" json:"therapist_id"`
	Date        string     `db:"day" json:"date"`
	Enabled     bool       `db:"enabled" json:"enabled"`
	Ranges      TimeRanges `db:"slots" json:"ranges"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type UpsertAvailabilityRequest struct {
	Date    string      `json:"date" binding:"required,datetime=2006-01-02"`
	Enabled bool        `json:"enabled"`
	Ranges  []TimeRange `json:"ranges" binding:"dive"`
}
