package common

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the import core can produce. The kind
// decides both the recovery policy and the message shown to the user.
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"        // malformed data URI, rejected before any call
	KindExtractionEmpty    Kind = "EXTRACTION_EMPTY"     // service ran but produced nothing usable
	KindMalformedResponse  Kind = "MALFORMED_RESPONSE"   // envelope did not parse
	KindServiceError       Kind = "SERVICE_ERROR"        // network/quota/auth/timeout calling the service
	KindValidation         Kind = "VALIDATION"           // a staged field fails a constraint at commit time
	KindPersistence        Kind = "PERSISTENCE"          // destination store rejected or failed the append
	KindNotFound           Kind = "NOT_FOUND"            // table or share id unknown
	KindConflict           Kind = "CONFLICT"             // e.g. deleting the account's only table
)

// User-facing messages, one per kind. Upstream error text is never
// shown to the user; it travels in Cause for logs only.
var userMessages = map[Kind]string{
	KindInvalidInput:      "O arquivo enviado é inválido. Selecione um .docx, .pdf ou imagem e tente novamente.",
	KindExtractionEmpty:   "Não foi possível extrair texto do documento. Verifique o arquivo e tente novamente.",
	KindMalformedResponse: "Falha ao interpretar os dados extraídos. Tente novamente.",
	KindServiceError:      "Falha ao analisar o documento. Tente novamente em alguns instantes.",
	KindValidation:        "Existem campos inválidos. Corrija os campos destacados antes de salvar.",
	KindPersistence:       "Falha ao salvar as alterações. Suas edições foram preservadas; tente novamente.",
	KindNotFound:          "Registro não encontrado.",
	KindConflict:          "Operação não permitida.",
}

// AppError carries the failure kind plus the underlying cause.
type AppError struct {
	Kind  Kind
	Msg   string // internal detail, loggable
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the localized message for this error's kind.
func (e *AppError) UserMessage() string {
	if m, ok := userMessages[e.Kind]; ok {
		return m
	}
	return userMessages[KindServiceError]
}

func NewError(kind Kind, msg string, cause error) *AppError {
	return &AppError{Kind: kind, Msg: msg, Cause: cause}
}

func Errorf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, or KindServiceError when err is
// not an AppError.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServiceError
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}

// UserMessageFor resolves the message to surface for any error.
func UserMessageFor(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return userMessages[KindServiceError]
}
