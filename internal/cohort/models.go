package cohort

import (
	"fmt"
	"time"

	"github.com/webinar-impact/webinar-impact/internal/status"
)

// WebinarEvent is one attendance row from the webinar export.
type WebinarEvent struct {
	Row               int        `json:"row"`
	StoreID           string     `json:"store_id"`
	MonthLabel        string     `json:"month_label,omitempty"`
	Month             string     `json:"month,omitempty"` // YYYY-MM, empty when unparsable
	WebinarName       string     `json:"webinar_name,omitempty"`
	WebinarStatus     string     `json:"webinar_status,omitempty"`
	StatusAtWebinar   string     `json:"status_at_webinar"`
	StatusMonthBefore string     `json:"status_month_before,omitempty"`
	FirstSellerAt     *time.Time `json:"first_seller_at,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// StoreRecord is a store from the full roster. Pointer fields are nil only
// for participants that could not be matched against the roster.
type StoreRecord struct {
	StoreID       string      `json:"store_id"`
	GMVD30        *float64    `json:"gmv_d30"`
	GMVD90        *float64    `json:"gmv_d90"`
	CurrentStatus string      `json:"current_status"`
	StoreAgeDays  *float64    `json:"store_age_days"`
	AgeCategory   AgeCategory `json:"age_category,omitempty"`
}

// ParticipantSummary collapses all attendance events of one store.
type ParticipantSummary struct {
	StoreID           string
	FirstWebinarMonth string
	WebinarCount      int
	StatusAtWebinar   string
	FirstSellerAt     *time.Time
	CreatedAt         *time.Time
}

// Participant is a store that attended at least one webinar, joined with
// its roster row when one exists.
type Participant struct {
	StoreRecord
	InRoster          bool          `json:"in_roster"`
	FirstWebinarMonth string        `json:"first_webinar_month"`
	WebinarCount      int           `json:"webinar_count"`
	StatusAtWebinar   string        `json:"status_at_webinar"`
	FirstSellerAt     *time.Time    `json:"first_seller_at,omitempty"`
	CreatedAt         *time.Time    `json:"created_at,omitempty"`
	StatusChange      status.Change `json:"status_change,omitempty"`
	HadFirstSaleAfter bool          `json:"had_first_sale_after"`
}

// Cohorts holds the treatment and control groups of one analysis cycle.
type Cohorts struct {
	Participants []Participant
	Control      []StoreRecord
}

// Horizon selects which trailing GMV window is analyzed.
type Horizon string

const (
	HorizonD30 Horizon = "gmv_d30"
	HorizonD90 Horizon = "gmv_d90"
)

// ParseHorizon accepts "gmv_d30", "gmv_d90" and the short forms "d30", "d90".
func ParseHorizon(s string) (Horizon, error) {
	switch s {
	case "", "gmv_d30", "d30", "30":
		return HorizonD30, nil
	case "gmv_d90", "d90", "90":
		return HorizonD90, nil
	}
	return "", fmt.Errorf("invalid GMV horizon %q: must be gmv_d30 or gmv_d90", s)
}

// Label returns a short human description of the window.
func (h Horizon) Label() string {
	if h == HorizonD90 {
		return "last 90 days"
	}
	return "last 30 days"
}

// GMV returns the value for the given horizon, nil when unknown.
func (s StoreRecord) GMV(h Horizon) *float64 {
	if h == HorizonD90 {
		return s.GMVD90
	}
	return s.GMVD30
}

// Segment names a column that stratifies the GMV comparison.
type Segment string

const (
	SegmentCurrentStatus Segment = "current_status"
	SegmentAgeCategory   Segment = "age_category"
)

// ParseSegment validates a segment column name.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case "", SegmentCurrentStatus:
		return SegmentCurrentStatus, nil
	case SegmentAgeCategory:
		return SegmentAgeCategory, nil
	}
	return "", fmt.Errorf("invalid segment %q: must be current_status or age_category", s)
}

// SegmentValue returns the record's value for a segment column.
func (s StoreRecord) SegmentValue(seg Segment) string {
	if seg == SegmentAgeCategory {
		return string(s.AgeCategory)
	}
	return s.CurrentStatus
}

// Float is a small helper for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
