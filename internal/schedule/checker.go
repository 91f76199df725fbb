// Package schedule decides whether appointments fit a therapist's declared
// availability. All functions are pure: they classify, they never mutate.
package schedule

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
)

// SlotInterval is the granularity offered when proposing replacement slots.
const SlotInterval = 30

// Day is one date's declared schedule.
type Day struct {
	Enabled bool
	Ranges  []model.TimeRange
}

// Calendar maps "2006-01-02" dates to day schedules.
type Calendar map[string]Day

// Booking is the projection of an appointment the checker needs.
type Booking struct {
	ID        uuid.UUID
	Date      string
	StartTime string
	Cancelled bool
}

// MinutesOfClock parses an "HH:MM" 24h clock into minutes since midnight.
// Malformed input returns ok=false; callers treat it as non-matching.
func MinutesOfClock(clock string) (int, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func clockOfMinutes(m int) string {
	h := m / 60
	return pad(h) + ":" + pad(m-h*60)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// contains tests half-open containment: start inclusive, end exclusive.
// Ranges with malformed bounds never match.
func contains(r model.TimeRange, minutes int) bool {
	start, ok := MinutesOfClock(r.Start)
	if !ok {
		return false
	}
	end, ok := MinutesOfClock(r.End)
	if !ok {
		return false
	}
	return start <= minutes && minutes < end
}

// CheckBooking classifies a single candidate move against the target
// therapist's calendar and existing bookings. A nil result means the
// move is safe.
func CheckBooking(cal Calendar, existing []Booking, cand Booking) *model.TransferConflict {
	day, ok := cal[cand.Date]
	if !ok || !day.Enabled {
		return &model.TransferConflict{
			AppointmentID: cand.ID,
			Date:          cand.Date,
			StartTime:     cand.StartTime,
			Reason:        model.ConflictNoAvailability,
		}
	}

	minutes, ok := MinutesOfClock(cand.StartTime)
	if !ok {
		// Malformed candidate times match no range.
		return &model.TransferConflict{
			AppointmentID: cand.ID,
			Date:          cand.Date,
			StartTime:     cand.StartTime,
			Reason:        model.ConflictNoSlot,
		}
	}

	inRange := false
	for _, r := range day.Ranges {
		if contains(r, minutes) {
			inRange = true
			break
		}
	}
	if !inRange {
		return &model.TransferConflict{
			AppointmentID: cand.ID,
			Date:          cand.Date,
			StartTime:     cand.StartTime,
			Reason:        model.ConflictNoSlot,
		}
	}

	for _, b := range existing {
		if b.Cancelled || b.ID == cand.ID || b.Date != cand.Date {
			continue
		}
		other, ok := MinutesOfClock(b.StartTime)
		if !ok {
			continue
		}
		if other == minutes {
			return &model.TransferConflict{
				AppointmentID: cand.ID,
				Date:          cand.Date,
				StartTime:     cand.StartTime,
				Reason:        model.ConflictDoubleBooked,
			}
		}
	}

	return nil
}

// CheckAll evaluates every candidate independently against the target's
// calendar and current bookings. Earlier candidates count as occupied for
// later ones, so two candidates claiming the same slot conflict with each
// other, the later-added one losing.
func CheckAll(cal Calendar, existing []Booking, cands []Booking) []model.TransferConflict {
	var conflicts []model.TransferConflict
	occupied := existing

	for _, cand := range cands {
		if c := CheckBooking(cal, occupied, cand); c != nil {
			conflicts = append(conflicts, *c)
			continue
		}
		occupied = append(occupied, cand)
	}
	return conflicts
}

// OpenSlots lists free slot start times for one date, snapped to
// SlotInterval boundaries. Disabled days have no open slots.
func OpenSlots(day Day, existing []Booking, date string) []string {
	if !day.Enabled {
		return nil
	}

	taken := make(map[int]bool, len(existing))
	for _, b := range existing {
		if b.Cancelled || b.Date != date {
			continue
		}
		if m, ok := MinutesOfClock(b.StartTime); ok {
			taken[m] = true
		}
	}

	var slots []string
	for _, r := range day.Ranges {
		start, ok := MinutesOfClock(r.Start)
		if !ok {
			continue
		}
		end, ok := MinutesOfClock(r.End)
		if !ok {
			continue
		}
		// Snap odd range starts up to the next slot boundary.
		if rem := start % SlotInterval; rem != 0 {
			start += SlotInterval - rem
		}
		for m := start; m < end; m += SlotInterval {
			if !taken[m] {
				slots = append(slots, clockOfMinutes(m))
			}
		}
	}
	return slots
}
