package models

// Platform identifies a target marketplace.
type Platform string

const (
	PlatformAmazon       Platform = "amazon"
	PlatformMercadoLibre Platform = "mercadolibre"
)

// Query is a single search request against one platform. It is immutable
// once issued.
type Query struct {
	Term     string   `json:"term"`
	MaxPages int      `json:"max_pages"`
	Platform Platform `json:"platform"`
}

// DeviceProfile selects which site variant and header set a fetch targets.
type DeviceProfile string

const (
	ProfileDesktop DeviceProfile = "desktop"
	ProfileMobile  DeviceProfile = "mobile"
)

// FetchRequest is a resolved, ready-to-execute page request. It is derived
// deterministically from (Query, page, strategy).
type FetchRequest struct {
	URL      string
	Profile  DeviceProfile
	Platform Platform
}

// PageClassification is the judgment of one fetched page body.
type PageClassification int

const (
	PageValid PageClassification = iota
	PageBlocked
	PageEmptyResults
	PageUnrecognized
)

func (c PageClassification) String() string {
	switch c {
	case PageValid:
		return "valid"
	case PageBlocked:
		return "blocked"
	case PageEmptyResults:
		return "empty_results"
	default:
		return "unrecognized"
	}
}

// RawRecord holds the fields pulled out of one listing node before
// validation. Numeric fields are nil when no extraction rule produced a
// parseable value.
type RawRecord struct {
	ID          string
	Source      string
	Title       string
	URL         string
	Price       *float64
	Currency    string
	Rating      *float64
	ReviewCount *int
}

// Record is the validated, bounds-checked output shape for one product
// listing. Instances are constructed only by the record validator.
type Record struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"review_count"`
}

// Float64 returns a pointer to v, for building optional fields in literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
