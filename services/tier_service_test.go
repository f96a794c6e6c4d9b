package services

import "testing"

func TestTierForThresholds(t *testing.T) {
	cases := []struct {
		orders int
		want   string
		rate   float64
	}{
		{0, "newbie", 30},
		{20, "newbie", 30},
		{21, "starter", 35},
		{50, "starter", 35},
		{51, "bronze", 40},
		{100, "bronze", 40},
		{101, "silver", 50},
		{200, "silver", 50},
		{201, "elite", 60},
		{5000, "elite", 60},
	}

	for _, tc := range cases {
		tier := TierFor(true, tc.orders)
		if tier.Name != tc.want {
			t.Errorf("TierFor(true, %d) = %q, want %q", tc.orders, tier.Name, tc.want)
		}
		if tier.Rate != tc.rate {
			t.Errorf("TierFor(true, %d) rate = %v, want %v", tc.orders, tier.Rate, tc.rate)
		}
	}
}

func TestTierForUnpaidStaysLowest(t *testing.T) {
	for _, orders := range []int{0, 21, 101, 201, 100000} {
		tier := TierFor(false, orders)
		if tier.Name != "newbie" {
			t.Errorf("TierFor(false, %d) = %q, want newbie", orders, tier.Name)
		}
	}
}

func TestTierForMonotonic(t *testing.T) {
	prev := TierFor(true, 0).Rate
	for orders := 1; orders <= 300; orders++ {
		rate := TierFor(true, orders).Rate
		if rate < prev {
			t.Fatalf("tier rate dropped from %v to %v at %d orders", prev, rate, orders)
		}
		prev = rate
	}
}

func TestTierByNameUnknownFallsBack(t *testing.T) {
	if got := TierByName("no-such-tier").Name; got != "newbie" {
		t.Errorf("TierByName fallback = %q, want newbie", got)
	}
}
