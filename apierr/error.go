package apierr

import (
	"net/http"
	"strconv"
	"strings"
)

// Property bag keys of a problem document.
const (
	KeyDetail   = "detail"
	KeyTitle    = "title"
	KeyType     = "type"
	KeyStatus   = "status"
	KeyInstance = "instance"
	KeyErrors   = "errors"
)

// ProblemDetail is an API-reported error in title/type/status/detail/instance shape.
type ProblemDetail struct {
	Title    string       `json:"title"`    // short summary of the problem class
	Type     string       `json:"type"`     // URI identifying the problem class
	Status   int          `json:"status"`   // status reported by the origin, 0 if unknown
	Detail   string       `json:"detail"`   // explanation of this occurrence
	Instance string       `json:"instance"` // occurrence id, quote it to support
	Errors   []FieldError `json:"errors"`
}

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// String returns the diagnostic line for p.
func (p ProblemDetail) String() string {
	return formatLine(p, true)
}

// APIError is what the client returns for a non-2xx response.
type APIError struct {
	Problem    ProblemDetail
	HTTPStatus int            // HTTP status of the response
	Reason     string         // set when the body was not a problem document
	Raw        string         // raw (trimmed) body
	Resp       *http.Response // headers etc. (body already consumed)
}

// Error combines status and title, e.g. "400 Invalid Resource: <detail>".
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	status := e.Problem.Status
	if status == 0 {
		status = e.HTTPStatus
	}
	title := coalesce(e.Problem.Title, http.StatusText(status))

	var b strings.Builder
	if status != 0 {
		b.WriteString(strconv.Itoa(status))
	}
	if title != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(title)
	}
	if d := e.Problem.Detail; d != "" && d != title {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(d)
	}
	if b.Len() == 0 {
		return "api error"
	}
	return b.String()
}

// FieldErrors returns the field-level violations, never nil.
func (e *APIError) FieldErrors() []FieldError {
	if e == nil || e.Problem.Errors == nil {
		return []FieldError{}
	}
	return e.Problem.Errors
}

func coalesce(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
