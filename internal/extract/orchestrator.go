package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
	"github.com/mfcosta/listings-tracker/internal/llm"
)

// Orchestrator turns a document data URI into either raw text or a
// validated list of candidate records, classifying every failure into
// the common error taxonomy.
type Orchestrator struct {
	extractor llm.DocumentExtractor
	timeout   time.Duration
	logger    *slog.Logger
}

func NewOrchestrator(extractor llm.DocumentExtractor, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{extractor: extractor, timeout: timeout, logger: logger}
}

// ExtractText runs the OCR path. It never succeeds with an empty string:
// a blank transcription means the document was unreadable and the user
// must hear about it.
func (o *Orchestrator) ExtractText(ctx context.Context, documentDataURI, filename string) (string, error) {
	doc, err := ParseDocumentURI(documentDataURI)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	text, err := o.extractor.ExtractText(ctx, llm.ExtractRequest{
		DocumentDataURI: doc.Raw,
		FilenameHint:    filename,
	})
	if err != nil {
		o.logger.Error("extract.text.service_error", "mime", doc.MIMEType, "error", err)
		return "", common.NewError(common.KindServiceError, "extraction service call failed", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		o.logger.Warn("extract.text.empty", "mime", doc.MIMEType)
		return "", common.Errorf(common.KindExtractionEmpty, "service returned no text")
	}
	return text, nil
}

// ExtractRecords runs the structured path. An empty candidate list is a
// valid result ("no listings found"), not an error; the caller decides
// how to surface it.
func (o *Orchestrator) ExtractRecords(ctx context.Context, documentDataURI, filename string) (*entity.ImportBatch, error) {
	doc, err := ParseDocumentURI(documentDataURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	env, _, err := o.extractor.ExtractProperties(ctx, llm.ExtractRequest{
		DocumentDataURI: doc.Raw,
		FilenameHint:    filename,
	})
	if err != nil {
		if errors.Is(err, llm.ErrMalformedResponse) {
			o.logger.Error("extract.records.malformed_response", "mime", doc.MIMEType, "error", err)
			return nil, common.NewError(common.KindMalformedResponse, "response did not match the expected envelope", err)
		}
		o.logger.Error("extract.records.service_error", "mime", doc.MIMEType, "error", err)
		return nil, common.NewError(common.KindServiceError, "extraction service call failed", err)
	}

	// Order is preserved exactly as the service returned it.
	candidates := make([]entity.CandidateRecord, 0, len(env.Properties))
	for _, f := range env.Properties {
		candidates = append(candidates, fieldsToCandidate(f))
	}

	o.logger.Info("extract.records.ok", "mime", doc.MIMEType, "candidates", len(candidates))
	return &entity.ImportBatch{
		Candidates: candidates,
		Filename:   filename,
		MIMEType:   doc.MIMEType,
	}, nil
}

func fieldsToCandidate(f llm.PropertyFields) entity.CandidateRecord {
	c := entity.CandidateRecord{
		BrokerName:        f.BrokerName,
		AgencyName:        f.AgencyName,
		PropertyName:      f.PropertyName,
		UnitNumber:        f.UnitNumber,
		Bedrooms:          f.Bedrooms,
		Bathrooms:         f.Bathrooms,
		Suites:            f.Suites,
		Lavabos:           f.Lavabos,
		AreaSqm:           f.AreaSqm,
		TotalAreaSqm:      f.TotalAreaSqm,
		Price:             f.Price,
		PaymentTerms:      f.PaymentTerms,
		AdditionalInfo:    f.AdditionalInfo,
		Address:           f.Address,
		Neighborhood:      f.Neighborhood,
		BrokerContact:     f.BrokerContact,
		PhotoLink:         f.PhotoLink,
		ExtraMaterialLink: f.ExtraMaterialLink,
	}
	// Sanitizer already canonicalized these; defaults cover records where
	// the model omitted them entirely.
	c.PropertyType, _ = constants.CanonicalizePropertyType(f.PropertyType)
	c.Status, _ = constants.CanonicalizeStatus(f.Status)
	for _, cat := range f.Categories {
		if v, ok := constants.CanonicalizeCategory(cat); ok {
			c.Categories = append(c.Categories, v)
		}
	}
	return c
}
