package entity

import (
	"time"

	"github.com/mfcosta/listings-tracker/constants"
)

// PropertyRecord is one confirmed listing in a table.
type PropertyRecord struct {
	ID                string                        `json:"id"`
	BrokerName        string                        `json:"broker_name"`
	AgencyName        string                        `json:"agency_name,omitempty"`
	PropertyName      string                        `json:"property_name"`
	UnitNumber        string                        `json:"unit_number,omitempty"`
	Bedrooms          int                           `json:"bedrooms"`
	Bathrooms         int                           `json:"bathrooms"`
	Suites            int                           `json:"suites"`
	Lavabos           int                           `json:"lavabos,omitempty"`
	AreaSqm           float64                       `json:"area_sqm"`
	TotalAreaSqm      *float64                      `json:"total_area_sqm,omitempty"`
	Price             float64                       `json:"price"`
	PaymentTerms      string                        `json:"payment_terms"`
	AdditionalInfo    string                        `json:"additional_info,omitempty"`
	PropertyType      constants.PropertyType        `json:"property_type"`
	Status            constants.ListingStatus       `json:"status"`
	Categories        []constants.PropertyCategory  `json:"categories,omitempty"`
	Address           string                        `json:"address,omitempty"`
	Neighborhood      string                        `json:"neighborhood,omitempty"`
	BrokerContact     string                        `json:"broker_contact,omitempty"`
	PhotoLink         string                        `json:"photo_link,omitempty"`
	ExtraMaterialLink string                        `json:"extra_material_link,omitempty"`
	Tags              []string                      `json:"tags"`
	CreatedAt         time.Time                     `json:"created_at"`
}

// CandidateRecord is a PropertyRecord-shaped value without an identity,
// held in the staging store between extraction and commit. UserTags are
// free-form labels typed in during review; derived tags are computed at
// commit time, never stored here.
type CandidateRecord struct {
	BrokerName        string                       `json:"broker_name"`
	AgencyName        string                       `json:"agency_name,omitempty"`
	PropertyName      string                       `json:"property_name"`
	UnitNumber        string                       `json:"unit_number,omitempty"`
	Bedrooms          int                          `json:"bedrooms"`
	Bathrooms         int                          `json:"bathrooms"`
	Suites            int                          `json:"suites"`
	Lavabos           int                          `json:"lavabos,omitempty"`
	AreaSqm           float64                      `json:"area_sqm"`
	TotalAreaSqm      *float64                     `json:"total_area_sqm,omitempty"`
	Price             float64                      `json:"price"`
	PaymentTerms      string                       `json:"payment_terms"`
	AdditionalInfo    string                       `json:"additional_info,omitempty"`
	PropertyType      constants.PropertyType       `json:"property_type"`
	Status            constants.ListingStatus      `json:"status"`
	Categories        []constants.PropertyCategory `json:"categories,omitempty"`
	Address           string                       `json:"address,omitempty"`
	Neighborhood      string                       `json:"neighborhood,omitempty"`
	BrokerContact     string                       `json:"broker_contact,omitempty"`
	PhotoLink         string                       `json:"photo_link,omitempty"`
	ExtraMaterialLink string                       `json:"extra_material_link,omitempty"`
	UserTags          []string                     `json:"user_tags,omitempty"`
}

// ImportBatch is what one extraction call produced: the candidates, the
// raw OCR text when the fallback path ran, and the originating document
// identity. It lives only for the duration of one import session.
type ImportBatch struct {
	Candidates []CandidateRecord `json:"candidates"`
	RawText    string            `json:"raw_text,omitempty"`
	Filename   string            `json:"filename,omitempty"`
	MIMEType   string            `json:"mime_type,omitempty"`
}

// ListingTable is a named, ordered collection of records owned by an account.
type ListingTable struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Name      string           `json:"name"`
	Records   []PropertyRecord `json:"records"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SharedList is a read-only snapshot of a table's records published
// under an opaque id.
type SharedList struct {
	ID        string           `json:"id"`
	Records   []PropertyRecord `json:"records"`
	CreatedAt time.Time        `json:"created_at"`
}
