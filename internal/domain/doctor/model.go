package doctor

import (
	"time"

	"github.com/google/uuid"
)

// DayHours is a doctor's working window for one weekday, both ends in
// zero-padded 24h "HH:mm". An empty start or end means the doctor does not
// work that day.
type DayHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyClocks maps lowercase weekday names (monday..sunday) to working
// hours. Absent days are non-working.
type WeeklyClocks map[string]DayHours

// LeaveRange is an inclusive date interval during which the doctor accepts
// no bookings regardless of the weekly schedule.
type LeaveRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
}

// Doctor is a bookable practitioner profile owned by a doctor-role user.
// Rating and ReviewCount are aggregates recomputed whenever the doctor's
// reviews change.
type Doctor struct {
	ID               uuid.UUID    `json:"id"`
	UserID           uuid.UUID    `json:"user_id"`
	Speciality       string       `json:"speciality"`
	Clocks           WeeklyClocks `json:"clocks"`
	UnavailableDates []LeaveRange `json:"unavailable_dates"`
	Rating           float64      `json:"rating"`
	ReviewCount      int          `json:"review_count"`
	Approved         bool         `json:"approved"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
