package services

// Tier is a commission-rate bracket. Rate is the direct commission as a
// percentage of the order's net amount.
type Tier struct {
	Name      string
	MinOrders int
	Rate      float64
}

// Ordered by MinOrders ascending. An affiliate qualifies for the last entry
// whose MinOrders is <= ordersSincePaid.
var tierTable = []Tier{
	{Name: "newbie", MinOrders: 0, Rate: 30},
	{Name: "starter", MinOrders: 21, Rate: 35},
	{Name: "bronze", MinOrders: 51, Rate: 40},
	{Name: "silver", MinOrders: 101, Rate: 50},
	{Name: "elite", MinOrders: 201, Rate: 60},
}

// TierFor returns the tier an affiliate qualifies for. Affiliates who never
// settled the one-time membership fee stay on the lowest tier no matter how
// many orders they bring in; that rule is intentional.
func TierFor(isPaid bool, ordersSincePaid int) Tier {
	if !isPaid {
		return tierTable[0]
	}
	current := tierTable[0]
	for _, t := range tierTable {
		if ordersSincePaid >= t.MinOrders {
			current = t
		}
	}
	return current
}

// TierByName looks a tier up by its stored name, falling back to the lowest
// tier for anything unrecognised.
func TierByName(name string) Tier {
	for _, t := range tierTable {
		if t.Name == name {
			return t
		}
	}
	return tierTable[0]
}

// MaxTierRate is the highest direct rate any tier can grant. Used when
// validating commission-config updates.
func MaxTierRate() float64 {
	max := 0.0
	for _, t := range tierTable {
		if t.Rate > max {
			max = t.Rate
		}
	}
	return max
}

// TierTable exposes a copy of the threshold table for the admin dashboard.
func TierTable() []Tier {
	out := make([]Tier, len(tierTable))
	copy(out, tierTable)
	return out
}
