package ingest

import (
	"fmt"
	"io"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
	"github.com/webinar-impact/webinar-impact/internal/status"
)

// Column aliases, matched case-insensitively. The first name of each list
// is the one used in the webinar and store exports.
var (
	colStoreID           = []string{"store_id", "id da loja"}
	colWebinarMonth      = []string{"Data do Webinar (mês)", "webinar_month", "month"}
	colWebinarName       = []string{"webinar_name", "webinar"}
	colWebinarStatus     = []string{"webinar_status"}
	colFirstSellerAt     = []string{"first_seller_at"}
	colCreatedAt         = []string{"created_at"}
	colStatusAtWebinar   = []string{"Máx. Seller Segment Mes Webinar", "status_at_webinar"}
	colStatusMonthBefore = []string{"Máx. Seller Segment Mes-1 Webinar", "status_month_before"}

	colGMVD30        = []string{"<Coluna 1>", "gmv_d30"}
	colGMVD90        = []string{"<Coluna 2>", "gmv_d90"}
	colCurrentStatus = []string{"<Coluna 3>", "current_status"}
	colStoreAgeDays  = []string{"<Coluna 4>", "store_age_days"}
)

// LoadWebinarEvents parses a webinar attendance export. Only store_id is
// required; other columns are read when present.
func LoadWebinarEvents(r io.Reader, filename string) ([]cohort.WebinarEvent, error) {
	t, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}

	idCol, ok := t.lookup(colStoreID...)
	if !ok {
		return nil, fmt.Errorf("%s: %w: store_id", filename, ErrMissingColumn)
	}
	monthCol, _ := t.lookup(colWebinarMonth...)
	nameCol, _ := t.lookup(colWebinarName...)
	webinarStatusCol, _ := t.lookup(colWebinarStatus...)
	firstSellerCol, _ := t.lookup(colFirstSellerAt...)
	createdCol, _ := t.lookup(colCreatedAt...)
	statusCol, _ := t.lookup(colStatusAtWebinar...)
	beforeCol, _ := t.lookup(colStatusMonthBefore...)

	events := make([]cohort.WebinarEvent, 0, len(t.rows))
	for i, row := range t.rows {
		label := cell(row, monthCol)
		events = append(events, cohort.WebinarEvent{
			Row:               i,
			StoreID:           cell(row, idCol),
			MonthLabel:        label,
			Month:             ParseWebinarMonth(label),
			WebinarName:       cell(row, nameCol),
			WebinarStatus:     cell(row, webinarStatusCol),
			StatusAtWebinar:   status.Normalize(cell(row, statusCol)),
			StatusMonthBefore: status.Normalize(cell(row, beforeCol)),
			FirstSellerAt:     ParseDate(cell(row, firstSellerCol)),
			CreatedAt:         ParseDate(cell(row, createdCol)),
		})
	}
	return events, nil
}

// LoadStoreRoster parses the full store export. Missing numeric values
// become 0 and a missing status becomes "". Rows without a store id are
// dropped.
func LoadStoreRoster(r io.Reader, filename string) ([]cohort.StoreRecord, error) {
	t, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}

	idCol, ok := t.lookup(colStoreID...)
	if !ok {
		return nil, fmt.Errorf("%s: %w: store_id", filename, ErrMissingColumn)
	}
	gmv30Col, _ := t.lookup(colGMVD30...)
	gmv90Col, _ := t.lookup(colGMVD90...)
	statusCol, _ := t.lookup(colCurrentStatus...)
	ageCol, _ := t.lookup(colStoreAgeDays...)

	roster := make([]cohort.StoreRecord, 0, len(t.rows))
	for _, row := range t.rows {
		id := cell(row, idCol)
		if id == "" {
			continue
		}
		roster = append(roster, cohort.StoreRecord{
			StoreID:       id,
			GMVD30:        cohort.Float(parseNumber(cell(row, gmv30Col))),
			GMVD90:        cohort.Float(parseNumber(cell(row, gmv90Col))),
			CurrentStatus: status.Normalize(cell(row, statusCol)),
			StoreAgeDays:  cohort.Float(parseNumber(cell(row, ageCol))),
		})
	}
	return roster, nil
}
