package constants

import "strings"

// MaxDocumentBytes is the ceiling for a decoded upload (matches the
// web tier's body-size configuration).
const MaxDocumentBytes = 260 * 1024 * 1024

// DocxMIME is the MIME type browsers report for .docx uploads.
const DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// IsSupportedMIME reports whether a document MIME type can be sent to
// the extraction service: any image, PDF, or DOCX.
func IsSupportedMIME(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return true
	case mt == "application/pdf":
		return true
	case mt == DocxMIME:
		return true
	}
	return false
}
