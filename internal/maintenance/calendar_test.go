package maintenance

import (
	"testing"
	"time"
)

func TestDaysCeil(t *testing.T) {
	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "180 day cycle",
			from: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
			want: 180,
		},
		{
			name: "same day",
			from: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "time of day is ignored",
			from: time.Date(2024, 6, 20, 23, 59, 0, 0, time.UTC),
			to:   time.Date(2024, 6, 29, 0, 1, 0, 0, time.UTC),
			want: 9,
		},
		{
			name: "target in the past",
			from: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
			want: -2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := daysCeil(tc.from, tc.to); got != tc.want {
				t.Fatalf("daysCeil(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := addDays(from, 180)
	want := time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("addDays = %v, want %v", got, want)
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 3, 15, 18, 42, 7, 999, time.UTC)
	got := dateOnly(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("dateOnly = %v, want %v", got, want)
	}
}
