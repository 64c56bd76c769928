package cohort

// AgeCategory buckets a store by how long it has existed.
type AgeCategory string

const (
	Age0To3Months  AgeCategory = "0-3mo"
	Age3To6Months  AgeCategory = "3-6mo"
	Age6To12Months AgeCategory = "6-12mo"
	Age1To2Years   AgeCategory = "1-2yr"
	Age2PlusYears  AgeCategory = "2+yr"
	AgeUnknown     AgeCategory = "unknown"
)

// AgeCategories lists the buckets from youngest to oldest, unknown last.
var AgeCategories = []AgeCategory{
	Age0To3Months,
	Age3To6Months,
	Age6To12Months,
	Age1To2Years,
	Age2PlusYears,
	AgeUnknown,
}

// CategorizeAge maps an age in days to its bucket.
func CategorizeAge(days *float64) AgeCategory {
	if days == nil || *days < 0 || *days != *days {
		return AgeUnknown
	}

	d := *days
	switch {
	case d <= 90:
		return Age0To3Months
	case d <= 180:
		return Age3To6Months
	case d <= 365:
		return Age6To12Months
	case d <= 730:
		return Age1To2Years
	default:
		return Age2PlusYears
	}
}

// AgeOrder returns the position of a bucket label in AgeCategories,
// or len(AgeCategories) for anything unrecognized.
func AgeOrder(label string) int {
	for i, c := range AgeCategories {
		if string(c) == label {
			return i
		}
	}
	return len(AgeCategories)
}
