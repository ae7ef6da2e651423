package delivery

import "testing"

func testCalculator() *FeeCalculator {
	return NewFeeCalculator(FeeConfig{
		FreeThreshold: 180,
		NearFee:       10,
		FarFee:        15,
		FarPrefixes:   []string{"46", "47", "52", "57", "60", "71", "79"},
	})
}

func TestFeeTiers(t *testing.T) {
	calc := testCalculator()

	cases := []struct {
		name     string
		subtotal float64
		postal   string
		want     float64
	}{
		{"near district below threshold", 50, "238801", 10},
		{"far district below threshold", 50, "520123", 15},
		{"far district boundary prefix", 50, "790001", 15},
		{"free at threshold", 180, "520123", 0},
		{"free above threshold", 250.50, "238801", 0},
		{"just below threshold", 179.99, "238801", 10},
		{"unknown prefix falls back to near", 50, "018989", 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.Fee(tc.subtotal, tc.postal)
			if got != tc.want {
				t.Fatalf("Fee(%v, %q) = %v, want %v", tc.subtotal, tc.postal, got, tc.want)
			}
		})
	}
}

func TestFeeIsDeterministic(t *testing.T) {
	calc := testCalculator()
	first := calc.Fee(42, "460001")
	for i := 0; i < 10; i++ {
		if got := calc.Fee(42, "460001"); got != first {
			t.Fatalf("fee changed between calls: %v then %v", first, got)
		}
	}
}
