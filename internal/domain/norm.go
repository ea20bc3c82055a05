package domain

// NormPoint is one breakpoint of the feeding table: at Weight kilograms the
// kitten needs Norm grams of dry-equivalent food per day.
type NormPoint struct {
	Weight float64 `json:"weight"`
	Norm   float64 `json:"norm"`
}

// Bracket names an age range of the feeding table.
type Bracket string

// Feeding table brackets.
const (
	BracketUnder3Months Bracket = "UNDER_3_MO"
	Bracket4To6Months   Bracket = "MO_4_TO_6"
	Bracket7To12Months  Bracket = "MO_7_TO_12"
)

// Breakpoints are strictly ascending by weight.
var feedingTable = map[Bracket][]NormPoint{
	BracketUnder3Months: {
		{Weight: 0.5, Norm: 30},
		{Weight: 1.0, Norm: 55},
	},
	Bracket4To6Months: {
		{Weight: 1.5, Norm: 60},
		{Weight: 2.0, Norm: 75},
		{Weight: 3.0, Norm: 100},
	},
	Bracket7To12Months: {
		{Weight: 2.0, Norm: 60},
		{Weight: 3.0, Norm: 80},
		{Weight: 4.0, Norm: 100},
		{Weight: 5.0, Norm: 120},
	},
}

// BracketForAge selects the table bracket for an age in months.
func BracketForAge(ageMonths float64) Bracket {
	switch {
	case ageMonths < 3:
		return BracketUnder3Months
	case ageMonths < 7:
		return Bracket4To6Months
	default:
		return Bracket7To12Months
	}
}

// NormTable returns a copy of the breakpoints of bracket b.
func NormTable(b Bracket) []NormPoint {
	points := feedingTable[b]
	out := make([]NormPoint, len(points))
	copy(out, points)
	return out
}

// DailyNorm maps an estimated weight (kg) and age (months) to a daily
// dry-equivalent norm in grams.
func DailyNorm(weight, ageMonths float64) float64 {
	return interpolateNorm(feedingTable[BracketForAge(ageMonths)], weight)
}

// interpolateNorm is piecewise linear over points. Below the first breakpoint
// it holds the first norm; above the last it extends the last segment.
func interpolateNorm(points []NormPoint, weight float64) float64 {
	first := points[0]
	if weight <= first.Weight {
		return first.Norm
	}
	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		if weight == p2.Weight {
			return p2.Norm
		}
		if weight < p2.Weight {
			return p1.Norm + (weight-p1.Weight)*(p2.Norm-p1.Norm)/(p2.Weight-p1.Weight)
		}
	}
	if len(points) < 2 {
		return first.Norm
	}
	prev, last := points[len(points)-2], points[len(points)-1]
	perKg := (last.Norm - prev.Norm) / (last.Weight - prev.Weight)
	return last.Norm + (weight-last.Weight)*perKg
}
