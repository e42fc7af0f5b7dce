package llm

import (
	"context"
	"errors"
)

// ErrMalformedResponse marks a response that reached us but could not be
// parsed into the expected envelope. Callers use it to separate "the model
// answered garbage" from "the call itself failed".
var ErrMalformedResponse = errors.New("malformed extraction response")

// PropertyFields is the normalized shape we want from the model for one
// listing. Field names mirror the JSON schema sent with the request.
type PropertyFields struct {
	BrokerName        string   `json:"broker_name"`
	AgencyName        string   `json:"agency_name,omitempty"`
	PropertyName      string   `json:"property_name"`
	UnitNumber        string   `json:"unit_number,omitempty"`
	Bedrooms          int      `json:"bedrooms"`
	Bathrooms         int      `json:"bathrooms"`
	Suites            int      `json:"suites"`
	Lavabos           int      `json:"lavabos,omitempty"`
	AreaSqm           float64  `json:"area_sqm"`
	TotalAreaSqm      *float64 `json:"total_area_sqm,omitempty"`
	Price             float64  `json:"price"`
	PaymentTerms      string   `json:"payment_terms"`
	AdditionalInfo    string   `json:"additional_features,omitempty"`
	PropertyType      string   `json:"property_type,omitempty"`
	Status            string   `json:"status,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	Address           string   `json:"address,omitempty"`
	Neighborhood      string   `json:"neighborhood,omitempty"`
	BrokerContact     string   `json:"broker_contact,omitempty"`
	PhotoLink         string   `json:"photo_link,omitempty"`
	ExtraMaterialLink string   `json:"extra_material_link,omitempty"`
}

// PropertiesEnvelope is the overall response shape: one document may
// contain several listings. An empty slice is a valid result.
type PropertiesEnvelope struct {
	Properties []PropertyFields `json:"properties"`
}

// ExtractRequest carries the document to the extraction service.
type ExtractRequest struct {
	// DocumentDataURI is the full data:<mime>;base64,<payload> string.
	DocumentDataURI string
	FilenameHint    string
}

// DocumentExtractor is the interface the orchestrator depends on.
type DocumentExtractor interface {
	// ExtractText performs OCR and returns the document text verbatim.
	ExtractText(ctx context.Context, req ExtractRequest) (string, error)
	// ExtractProperties returns every listing found in the document,
	// plus the raw model JSON for logging.
	ExtractProperties(ctx context.Context, req ExtractRequest) (PropertiesEnvelope, []byte, error)
}
