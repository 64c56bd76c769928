package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Import is one uploaded pair of webinar and store exports.
type Import struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	EventCount int       `json:"event_count"`
	StoreCount int       `json:"store_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ShortID is the prefix shown in listings.
func (i *Import) ShortID() string {
	if len(i.ID) < 8 {
		return i.ID
	}
	return i.ID[:8]
}

// DefaultImportName names an import after its webinar file and import time.
func DefaultImportName(filename string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "import"
	}
	return fmt.Sprintf("%s %s", base, at.Format("2006-01-02 15:04:05"))
}
