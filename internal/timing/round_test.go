package timing

import "testing"

func TestJSRoundTiesAndNearHalf(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.49999999999999994, 0},
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, 0},
		{-1.5, -1},
		{-2.5, -2},
		{-2.6, -3},
		{69.99999999999999, 70},
		{4503599627370495.5, 4503599627370496},
	}
	for _, tc := range cases {
		if got := jsRound(tc.in); got != tc.want {
			t.Fatalf("jsRound(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
