package ledger

// Aging buckets partition outstanding orders by days overdue. The four
// ranges are disjoint and cover every non-negative day count.
type AgingRange struct {
	Label   string
	MinDays int
	// MaxDays is -1 for the unbounded last bucket
	MaxDays int
}

// AgingRanges returns the bucket boundaries in ascending order
func AgingRanges() []AgingRange {
	return []AgingRange{
		{Label: "0-30", MinDays: 0, MaxDays: 30},
		{Label: "31-60", MinDays: 31, MaxDays: 60},
		{Label: "61-90", MinDays: 61, MaxDays: 90},
		{Label: "90+", MinDays: 91, MaxDays: -1},
	}
}

// AgingBucketIndex returns the index of the bucket the day count falls in
func AgingBucketIndex(overdueDays int) int {
	switch {
	case overdueDays <= 30:
		return 0
	case overdueDays <= 60:
		return 1
	case overdueDays <= 90:
		return 2
	default:
		return 3
	}
}
