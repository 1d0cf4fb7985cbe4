package doctor

import (
	"testing"
	"time"
)

func TestValidTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "17:00", "23:59"}
	for _, s := range valid {
		if !ValidTime(s) {
			t.Errorf("ValidTime(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "noon", "12:3", "112:30"}
	for _, s := range invalid {
		if ValidTime(s) {
			t.Errorf("ValidTime(%q) = true, want false", s)
		}
	}
}

func TestMinutesOf(t *testing.T) {
	cases := map[string]int{"00:00": 0, "01:05": 65, "12:30": 750, "23:59": 1439}
	for s, want := range cases {
		if got := MinutesOf(s); got != want {
			t.Errorf("MinutesOf(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestDateOnly(t *testing.T) {
	cases := []time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 3, 2, 12, 0, 0, 0, time.FixedZone("", 3*3600)),
		time.Date(2026, 3, 2, 8, 0, 0, 0, time.FixedZone("", -5*3600)),
	}
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range cases {
		if got := DateOnly(in); !got.Equal(want) {
			t.Errorf("DateOnly(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestWithinHalfOpen(t *testing.T) {
	h := DayHours{Start: "09:00", End: "17:00"}
	cases := []struct {
		start string
		want  bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"12:00", true},
		{"16:59", true},
		{"17:00", false},
		{"18:00", false},
	}
	for _, c := range cases {
		if got := h.Within(c.start); got != c.want {
			t.Errorf("Within(%q) = %v, want %v", c.start, got, c.want)
		}
	}
}

func TestWorkingHours(t *testing.T) {
	d := &Doctor{Clocks: WeeklyClocks{
		"monday":    {Start: "09:00", End: "17:00"},
		"wednesday": {}, // configured but closed
	}}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	hours, ok := d.WorkingHours(monday)
	if !ok || hours.Start != "09:00" {
		t.Errorf("monday = (%+v, %v), want working 09:00", hours, ok)
	}
	if _, ok := d.WorkingHours(monday.AddDate(0, 0, 1)); ok {
		t.Error("tuesday should be non-working (absent day)")
	}
	if _, ok := d.WorkingHours(monday.AddDate(0, 0, 2)); ok {
		t.Error("wednesday should be non-working (empty hours)")
	}

	var bare Doctor
	if _, ok := bare.WorkingHours(monday); ok {
		t.Error("nil clocks should mean non-working")
	}
}

func TestOnLeaveInclusiveBounds(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	d := &Doctor{UnavailableDates: []LeaveRange{{StartDate: start, EndDate: end}}}

	cases := []struct {
		date time.Time
		want bool
	}{
		{start.AddDate(0, 0, -1), false},
		{start, true},
		{start.AddDate(0, 0, 1), true},
		{end, true},
		{end.AddDate(0, 0, 1), false},
	}
	for _, c := range cases {
		if got := d.OnLeave(c.date); got != c.want {
			t.Errorf("OnLeave(%s) = %v, want %v", c.date.Format("2006-01-02"), got, c.want)
		}
	}

	// time-of-day on either side must not matter at day granularity
	if !d.OnLeave(end.Add(23*time.Hour + 59*time.Minute)) {
		t.Error("late on the last leave day should still count as leave")
	}
}

func TestWeeklyClocksValidate(t *testing.T) {
	tests := []struct {
		name    string
		clocks  WeeklyClocks
		wantErr bool
	}{
		{"empty", WeeklyClocks{}, false},
		{"valid", WeeklyClocks{"monday": {Start: "09:00", End: "17:00"}}, false},
		{"closed day", WeeklyClocks{"sunday": {}}, false},
		{"unknown day", WeeklyClocks{"funday": {Start: "09:00", End: "17:00"}}, true},
		{"half-set hours", WeeklyClocks{"monday": {Start: "09:00"}}, true},
		{"bad start format", WeeklyClocks{"monday": {Start: "9:00", End: "17:00"}}, true},
		{"bad end format", WeeklyClocks{"monday": {Start: "09:00", End: "25:00"}}, true},
		{"start equals end", WeeklyClocks{"monday": {Start: "09:00", End: "09:00"}}, true},
		{"start after end", WeeklyClocks{"monday": {Start: "17:00", End: "09:00"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.clocks.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
