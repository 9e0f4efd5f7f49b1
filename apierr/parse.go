package apierr

import (
	"net/http"
	"strings"

	"github.com/bodrovis/chimpex/propbag"
)

const (
	ReasonNonJSON     = "non-json error body"
	ReasonInvalidJSON = "invalid json in error body"
)

// Parse builds an APIError from a non-2xx body using the default decoder.
// slurp is already size-limited; status is the HTTP status.
func Parse(slurp []byte, status int) *APIError {
	return defaultDecoder().Parse(slurp, status)
}

// Parse decodes a problem document body. Bodies that are not a JSON object
// become a problem titled with the status text, the body as its detail.
func (d *Decoder) Parse(slurp []byte, status int) *APIError {
	trimmed := strings.TrimSpace(string(slurp))

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return d.fallback(status, trimmed, ReasonNonJSON)
	}

	bag, err := propbag.FromJSON([]byte(trimmed))
	if err != nil {
		return d.fallback(status, trimmed, ReasonInvalidJSON)
	}

	return &APIError{
		Problem:    d.Decode(bag),
		HTTPStatus: status,
		Raw:        trimmed,
	}
}

func (d *Decoder) fallback(status int, raw, reason string) *APIError {
	p := ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Detail: raw,
		Errors: []FieldError{},
	}
	d.emit(formatLine(p, false))

	return &APIError{
		Problem:    p,
		HTTPStatus: status,
		Reason:     reason,
		Raw:        raw,
	}
}
