package date

import (
	"slices"
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	d := New(2025, time.May, 21) // a Wednesday
	tests := []struct {
		period Period
		want   Range
	}{
		{Daily, Range{From: d, To: d}},
		{Weekly, Range{From: New(2025, time.May, 19), To: New(2025, time.May, 25)}},
		{Monthly, Range{From: New(2025, time.May, 1), To: New(2025, time.May, 31)}},
		{Quarterly, Range{From: New(2025, time.April, 1), To: New(2025, time.June, 30)}},
		{Yearly, Range{From: New(2025, time.January, 1), To: New(2025, time.December, 31)}},
	}
	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			got := NewRange(d, tt.period)
			if got != tt.want {
				t.Errorf("NewRange(%s, %s) = %s, want %s", d, tt.period, got, tt.want)
			}
			if p, ok := got.Period(); !ok || p != tt.period {
				t.Errorf("%s.Period() = %s, %v, want %s, true", got, p, ok, tt.period)
			}
			if !got.Contains(d) {
				t.Errorf("%s does not contain %s", got, d)
			}
		})
	}
}

func TestNewRange_February(t *testing.T) {
	got := NewRange(New(2024, time.February, 10), Monthly)
	if want := New(2024, time.February, 29); got.To != want {
		t.Errorf("end of a leap February = %s, want %s", got.To, want)
	}
}

func TestRange_NameAndIdentifier(t *testing.T) {
	tests := []struct {
		r        Range
		name, id string
	}{
		{NewRange(New(2025, time.March, 3), Daily), "daily", "2025-03-03"},
		{NewRange(New(2025, time.January, 1), Weekly), "weekly", "2025-W01"}, // starts 2024-12-30
		{NewRange(New(2025, time.May, 21), Weekly), "weekly", "2025-W21"},
		{NewRange(New(2025, time.August, 14), Monthly), "monthly", "2025-08"},
		{NewRange(New(2025, time.August, 14), Quarterly), "quarterly", "2025-Q3"},
		{NewRange(New(2025, time.August, 14), Yearly), "yearly", "2025"},
		{ToDate(New(2025, time.August, 14), Monthly), "special", "2025-08-01_2025-08-14"},
		{Range{From: New(2025, time.January, 2), To: New(2025, time.January, 3)}, "special", "2025-01-02_2025-01-03"},
	}
	for _, tt := range tests {
		if got := tt.r.Name(); got != tt.name {
			t.Errorf("%s.Name() = %q, want %q", tt.r, got, tt.name)
		}
		if got := tt.r.Identifier(); got != tt.id {
			t.Errorf("%s.Identifier() = %q, want %q", tt.r, got, tt.id)
		}
	}
}

func TestRange_Validate(t *testing.T) {
	r := Range{From: New(2025, time.February, 1), To: New(2025, time.January, 1)}
	if err := r.Validate(); err == nil {
		t.Errorf("%s.Validate() should fail", r)
	}
	r = Range{From: New(2025, time.January, 1), To: New(2025, time.January, 31)}
	if err := r.Validate(); err != nil {
		t.Errorf("%s.Validate() = %v", r, err)
	}
	if got := r.Days(); got != 30 {
		t.Errorf("%s.Days() = %d, want 30", r, got)
	}
}

func TestParsePeriod(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Period
	}{
		{"day", Daily}, {"Daily", Daily}, {"week", Weekly}, {"MONTH", Monthly},
		{"monthly", Monthly}, {"quarter", Quarterly}, {"year", Yearly}, {"yearly", Yearly},
	} {
		got, err := ParsePeriod(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
	for _, in := range []string{"", "fortnight", "months"} {
		if _, err := ParsePeriod(in); err == nil {
			t.Errorf("ParsePeriod(%q) should fail", in)
		}
	}
}

func TestToDate_Each(t *testing.T) {
	r := ToDate(New(2025, time.July, 3), Quarterly)
	var got []Date
	for d := range r.Each() {
		got = append(got, d)
	}
	want := []Date{New(2025, time.July, 1), New(2025, time.July, 2), New(2025, time.July, 3)}
	if !slices.Equal(got, want) {
		t.Errorf("%s.Each() = %v, want %v", r, got, want)
	}
}
