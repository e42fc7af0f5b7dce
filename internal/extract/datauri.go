package extract

import (
	"regexp"
	"strings"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
)

var dataURIRe = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)

// DocumentURI is a parsed data:<mime>;base64,<payload> string.
type DocumentURI struct {
	Raw      string
	MIMEType string
	// PayloadLen is the base64 payload length; the payload itself is
	// never decoded here, it is forwarded to the service as-is.
	PayloadLen int
}

// ParseDocumentURI checks the shape of an uploaded document URI before any
// external call is made. Anything that fails here is the caller's fault,
// never the service's.
func ParseDocumentURI(raw string) (DocumentURI, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DocumentURI{}, common.Errorf(common.KindInvalidInput, "empty document data URI")
	}

	m := dataURIRe.FindStringSubmatch(trimmed)
	if m == nil {
		return DocumentURI{}, common.Errorf(common.KindInvalidInput, "document is not a base64 data URI")
	}

	mimeType := strings.ToLower(m[1])
	if !constants.IsSupportedMIME(mimeType) {
		return DocumentURI{}, common.Errorf(common.KindInvalidInput, "unsupported document type: %s", mimeType)
	}

	payloadLen := len(m[2])
	// base64 inflates by 4/3; compare against the decoded ceiling
	if payloadLen/4*3 > constants.MaxDocumentBytes {
		return DocumentURI{}, common.Errorf(common.KindInvalidInput, "document exceeds size limit")
	}

	return DocumentURI{Raw: trimmed, MIMEType: mimeType, PayloadLen: payloadLen}, nil
}
