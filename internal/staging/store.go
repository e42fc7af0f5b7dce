package staging

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

// Store holds the candidates of one import session while the user reviews
// them. It never touches the persistent table; commit goes through the
// merge service.
//
// Field edits are applied even when they violate a constraint (the user is
// still typing); the violation is remembered per field and re-checked, so a
// bad price blocks only its own candidate at commit time.
type Store struct {
	mu        sync.Mutex
	batch     entity.ImportBatch
	fieldErrs []map[string]string // candidate index -> field -> message
	staged    bool
}

func NewStore() *Store {
	return &Store{}
}

// Stage replaces the current batch. Staging is not additive: calling it
// twice with the same batch leaves exactly one copy.
func (s *Store) Stage(batch *entity.ImportBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = entity.ImportBatch{
		Candidates: append([]entity.CandidateRecord(nil), batch.Candidates...),
		RawText:    batch.RawText,
		Filename:   batch.Filename,
		MIMEType:   batch.MIMEType,
	}
	s.fieldErrs = make([]map[string]string, len(s.batch.Candidates))
	for i := range s.fieldErrs {
		s.fieldErrs[i] = map[string]string{}
	}
	s.staged = true
}

// Staged reports whether a batch is currently held.
func (s *Store) Staged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// Candidates returns a copy of the staged candidates.
func (s *Store) Candidates() []entity.CandidateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.CandidateRecord(nil), s.batch.Candidates...)
}

// RawText returns the OCR text captured with the batch, if any.
func (s *Store) RawText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch.RawText
}

// AddBlank appends an empty candidate for a manual addition alongside the
// extracted ones.
func (s *Store) AddBlank() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.Candidates = append(s.batch.Candidates, entity.CandidateRecord{
		PropertyType: constants.OtherProperty,
		Status:       constants.StatusAvailable,
	})
	s.fieldErrs = append(s.fieldErrs, map[string]string{})
	s.staged = true
}

// Remove drops one staged candidate.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.batch.Candidates) {
		return common.Errorf(common.KindValidation, "candidate index %d out of range", index)
	}
	s.batch.Candidates = append(s.batch.Candidates[:index], s.batch.Candidates[index+1:]...)
	s.fieldErrs = append(s.fieldErrs[:index], s.fieldErrs[index+1:]...)
	return nil
}

// UpdateField mutates one field of one candidate from its form string and
// re-validates that field only. The edit always lands; a constraint
// violation is recorded against the field and returned, but the candidate
// stays staged and editable.
func (s *Store) UpdateField(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.batch.Candidates) {
		return common.Errorf(common.KindValidation, "candidate index %d out of range", index)
	}

	c := &s.batch.Candidates[index]
	ferr := applyField(c, field, value)
	if ferr != "" {
		s.fieldErrs[index][field] = ferr
		return common.Errorf(common.KindValidation, "%s: %s", field, ferr)
	}
	delete(s.fieldErrs[index], field)
	return nil
}

// FieldErrors returns the remembered violations for one candidate.
func (s *Store) FieldErrors(index int) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(s.fieldErrs[index]))
	for k, v := range s.fieldErrs[index] {
		out[k] = v
	}
	return out
}

// Committable checks one candidate against the commit constraints:
// required fields populated, numeric fields positive, URL fields empty or
// well-formed. The returned error names every offending field so the UI
// can highlight them.
func (s *Store) Committable(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.batch.Candidates) {
		return common.Errorf(common.KindValidation, "candidate index %d out of range", index)
	}
	return validateCandidate(s.batch.Candidates[index], s.fieldErrs[index])
}

// CommittableAll returns the full batch if every candidate passes, or a
// ValidationError naming the first offending candidate. Nothing is
// silently dropped or coerced.
func (s *Store) CommittableAll() ([]entity.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.staged {
		return nil, common.Errorf(common.KindValidation, "no staged batch")
	}
	for i, c := range s.batch.Candidates {
		if err := validateCandidate(c, s.fieldErrs[i]); err != nil {
			return nil, common.NewError(common.KindValidation,
				fmt.Sprintf("candidate %d not committable", i), err)
		}
	}
	return append([]entity.CandidateRecord(nil), s.batch.Candidates...), nil
}

// Clear drops the staged batch (dialog close, cancel, or post-commit).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = entity.ImportBatch{}
	s.fieldErrs = nil
	s.staged = false
}

func validateCandidate(c entity.CandidateRecord, fieldErrs map[string]string) error {
	var bad []string
	if strings.TrimSpace(c.BrokerName) == "" {
		bad = append(bad, "broker_name")
	}
	if strings.TrimSpace(c.PropertyName) == "" {
		bad = append(bad, "property_name")
	}
	if strings.TrimSpace(c.PaymentTerms) == "" {
		bad = append(bad, "payment_terms")
	}
	if c.Price <= 0 {
		bad = append(bad, "price")
	}
	if c.AreaSqm <= 0 {
		bad = append(bad, "area_sqm")
	}
	if c.Bedrooms < 0 {
		bad = append(bad, "bedrooms")
	}
	if c.Bathrooms < 0 {
		bad = append(bad, "bathrooms")
	}
	if c.Suites < 0 {
		bad = append(bad, "suites")
	}
	if c.PhotoLink != "" && !validURL(c.PhotoLink) {
		bad = append(bad, "photo_link")
	}
	if c.ExtraMaterialLink != "" && !validURL(c.ExtraMaterialLink) {
		bad = append(bad, "extra_material_link")
	}
	for field := range fieldErrs {
		if !contains(bad, field) {
			bad = append(bad, field)
		}
	}
	if len(bad) > 0 {
		return common.Errorf(common.KindValidation, "invalid fields: %s", strings.Join(bad, ", "))
	}
	return nil
}

func applyField(c *entity.CandidateRecord, field, value string) string {
	value = strings.TrimSpace(value)
	switch field {
	case "broker_name":
		c.BrokerName = value
		if value == "" {
			return "obrigatório"
		}
	case "agency_name":
		c.AgencyName = value
	case "property_name":
		c.PropertyName = value
		if value == "" {
			return "obrigatório"
		}
	case "unit_number":
		c.UnitNumber = value
	case "bedrooms", "bathrooms", "suites", "lavabos":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			setCount(c, field, 0)
			return "deve ser um número não negativo"
		}
		setCount(c, field, n)
	case "area_sqm":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			c.AreaSqm = 0
			return "deve ser um número positivo"
		}
		c.AreaSqm = f
	case "total_area_sqm":
		if value == "" {
			c.TotalAreaSqm = nil
			return ""
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			c.TotalAreaSqm = nil
			return "deve ser um número positivo"
		}
		c.TotalAreaSqm = &f
	case "price":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			c.Price = 0
			return "deve ser um número positivo"
		}
		c.Price = f
	case "payment_terms":
		c.PaymentTerms = value
		if value == "" {
			return "obrigatório"
		}
	case "additional_features":
		c.AdditionalInfo = value
	case "property_type":
		c.PropertyType, _ = constants.CanonicalizePropertyType(value)
	case "status":
		c.Status, _ = constants.CanonicalizeStatus(value)
	case "categories":
		c.Categories = nil
		for _, part := range strings.Split(value, ",") {
			if cat, ok := constants.CanonicalizeCategory(part); ok {
				c.Categories = append(c.Categories, cat)
			}
		}
	case "address":
		c.Address = value
	case "neighborhood":
		c.Neighborhood = value
	case "broker_contact":
		c.BrokerContact = value
	case "photo_link":
		c.PhotoLink = value
		if value != "" && !validURL(value) {
			return "deve ser uma URL válida"
		}
	case "extra_material_link":
		c.ExtraMaterialLink = value
		if value != "" && !validURL(value) {
			return "deve ser uma URL válida"
		}
	case "tags":
		c.UserTags = nil
		for _, part := range strings.Split(value, ",") {
			if t := strings.TrimSpace(part); t != "" {
				c.UserTags = append(c.UserTags, t)
			}
		}
	default:
		return "campo desconhecido"
	}
	return ""
}

func setCount(c *entity.CandidateRecord, field string, n int) {
	switch field {
	case "bedrooms":
		c.Bedrooms = n
	case "bathrooms":
		c.Bathrooms = n
	case "suites":
		c.Suites = n
	case "lavabos":
		c.Lavabos = n
	}
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
