package status

import "strings"

// Seller tiers in ascending order.
const (
	NoSeller         = "no-seller"
	StrugglingSeller = "struggling-seller"
	TinySeller       = "tiny-seller"
	SmallSeller      = "small-seller"
	MediumSeller     = "medium-seller"
	LargeSeller      = "large-seller"
	TopSeller        = "top-seller"
)

// Canonical lists every valid status, ordered by rank.
var Canonical = []string{
	NoSeller,
	StrugglingSeller,
	TinySeller,
	SmallSeller,
	MediumSeller,
	LargeSeller,
	TopSeller,
}

var ranks = map[string]int{
	NoSeller:         0,
	StrugglingSeller: 1,
	TinySeller:       2,
	SmallSeller:      3,
	MediumSeller:     4,
	LargeSeller:      5,
	TopSeller:        6,
}

// Change classifies the movement between two statuses.
type Change string

const (
	Upgrade    Change = "upgrade"
	Downgrade  Change = "downgrade"
	Maintained Change = "maintained"
	Unknown    Change = "unknown"
)

// Normalize trims and lower-cases a status label.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Rank returns the ordinal position of a status, or -1 when the label
// is empty or not recognized.
func Rank(s string) int {
	if r, ok := ranks[Normalize(s)]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the canonical statuses.
func Valid(s string) bool {
	return Rank(s) >= 0
}

// IsSeller reports whether a store with this status has made a sale.
// Empty and no-seller both count as "not yet selling".
func IsSeller(s string) bool {
	n := Normalize(s)
	return n != "" && n != NoSeller
}

// Classify compares two statuses and returns the change class along with
// the signed rank difference. Unknown transitions have magnitude 0.
func Classify(before, after string) (Change, int) {
	b, a := Rank(before), Rank(after)
	if b < 0 || a < 0 {
		return Unknown, 0
	}

	magnitude := a - b
	switch {
	case magnitude > 0:
		return Upgrade, magnitude
	case magnitude < 0:
		return Downgrade, magnitude
	default:
		return Maintained, 0
	}
}
