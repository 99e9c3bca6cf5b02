package stockledger

import (
	"errors"
	"testing"
)

func TestPositionSize(t *testing.T) {
	testCases := []struct {
		name                      string
		value, risk, entry, stop string
		want                      int64
		wantErr                   error
	}{
		{"reference", "100000", "0.02", "50", "45", 400, nil},
		{"floored", "10000", "0.01", "33", "30", 33, nil},
		{"short side stop above entry", "100000", "0.02", "45", "50", 400, nil},
		{"full risk", "1000", "1", "10", "9", 1000, nil},
		{"nothing to risk", "0", "0.02", "10", "9", 0, nil},
		{"equal stop", "100000", "0.02", "50", "50", 0, ErrInvalidStopLoss},
		{"zero risk", "100000", "0", "50", "45", 0, ErrInvalidRisk},
		{"risk above one", "100000", "1.5", "50", "45", 0, ErrInvalidRisk},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PositionSize(dec(tc.value), dec(tc.risk), dec(tc.entry), dec(tc.stop))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("PositionSize() error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("PositionSize() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFractionalPositionSize(t *testing.T) {
	got, err := FractionalPositionSize(dec("10000"), dec("0.01"), dec("33"), dec("30"), 4)
	if err != nil {
		t.Fatalf("FractionalPositionSize() unexpected error: %v", err)
	}
	if !got.Equal(dec("33.3333")) {
		t.Errorf("FractionalPositionSize() = %s, want 33.3333", got)
	}
}
