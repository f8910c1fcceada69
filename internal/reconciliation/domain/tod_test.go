package reconciliation

import "testing"

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		slot string
		want Category
	}{
		{"00:00 - 00:15", CategoryC5},
		{"04:45 - 05:00", CategoryC5},
		{"05:00 - 05:15", CategoryC4},
		{"05:45 - 06:00", CategoryC4},
		{"06:00 - 06:15", CategoryC1},
		{"09:45 - 10:00", CategoryC1},
		{"10:00 - 10:15", CategoryC4},
		{"10:15 - 10:30", CategoryC4},
		{"17:45 - 18:00", CategoryC4},
		{"18:00 - 18:15", CategoryC2},
		{"21:45 - 22:00", CategoryC2},
		{"22:00 - 22:15", CategoryC5},
		{"22:15 - 22:30", CategoryC5},
		{"23:45 - 00:00", CategoryC5},
		{"not a time", CategoryUnknown},
		{"", CategoryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.slot, func(t *testing.T) {
			if got := Classify(tc.slot); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCategory_Bands(t *testing.T) {
	if !CategoryC1.IsPeak() || !CategoryC2.IsPeak() || CategoryC4.IsPeak() {
		t.Fatalf("unexpected peak bands")
	}
	if !CategoryC5.IsOffPeak() || CategoryC4.IsOffPeak() {
		t.Fatalf("unexpected off-peak bands")
	}
	if CategoryC2.Description() != "Evening Peak" {
		t.Fatalf("expected Evening Peak, got %s", CategoryC2.Description())
	}
	if ClassifyHour(24) != CategoryUnknown {
		t.Fatalf("expected hour 24 to be unknown")
	}
}
