package apierr_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bodrovis/chimpex/apierr"
)

func TestParse_NonJSON(t *testing.T) {
	d, trace := newTestDecoder(t)
	body := []byte("gateway exploded lol")
	st := http.StatusBadGateway

	e := d.Parse(body, st)
	if e.HTTPStatus != st || e.Problem.Status != st {
		t.Fatalf("status = %d/%d want %d", e.HTTPStatus, e.Problem.Status, st)
	}
	if e.Problem.Title != http.StatusText(st) {
		t.Fatalf("Title=%q want %q", e.Problem.Title, http.StatusText(st))
	}
	if e.Problem.Detail != "gateway exploded lol" {
		t.Fatalf("Detail=%q", e.Problem.Detail)
	}
	if e.Reason != apierr.ReasonNonJSON {
		t.Fatalf("Reason=%q want %q", e.Reason, apierr.ReasonNonJSON)
	}
	if e.Raw != "gateway exploded lol" {
		t.Fatalf("Raw=%q want %q", e.Raw, "gateway exploded lol")
	}
	if e.Problem.Errors == nil {
		t.Fatalf("Errors must not be nil")
	}
	if len(trace.all()) != 1 {
		t.Fatalf("fallback should still emit a diagnostic line")
	}
}

func TestParse_EmptyBody(t *testing.T) {
	d, _ := newTestDecoder(t)
	e := d.Parse(nil, http.StatusServiceUnavailable)
	if e.Reason != apierr.ReasonNonJSON || e.Problem.Detail != "" {
		t.Fatalf("unexpected: %#v", e)
	}
	if e.Error() != "503 Service Unavailable" {
		t.Fatalf("Error()=%q", e.Error())
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	d, _ := newTestDecoder(t)
	for _, body := range []string{"{oops", `{"title":"x"} trailing`} {
		e := d.Parse([]byte(body), http.StatusInternalServerError)
		if e.Reason != apierr.ReasonInvalidJSON {
			t.Fatalf("%q: Reason=%q want %q", body, e.Reason, apierr.ReasonInvalidJSON)
		}
		if e.Problem.Title != "Internal Server Error" || e.Problem.Status != 500 {
			t.Fatalf("%q: problem=%#v", body, e.Problem)
		}
		if e.Raw != body {
			t.Fatalf("Raw=%q want %q", e.Raw, body)
		}
	}
}

func TestParse_ArrayBodyIsNotAProblem(t *testing.T) {
	d, _ := newTestDecoder(t)
	e := d.Parse([]byte(`[{"title":"x"}]`), http.StatusBadRequest)
	if e.Reason != apierr.ReasonNonJSON {
		t.Fatalf("Reason=%q", e.Reason)
	}
}

func TestParse_ProblemDocument(t *testing.T) {
	d, trace := newTestDecoder(t)
	body := []byte(`{"type":"https://mailchimp.com/developer/marketing/docs/errors/","title":"Invalid Resource","status":400,"detail":"Your merge fields were invalid.","instance":"995c5cb0-3280-4a6e-808b-3b096d0bb219","errors":[{"field":"FNAME","message":"Please enter a value"}]}`)

	e := d.Parse(body, http.StatusBadRequest)
	if e.Reason != "" {
		t.Fatalf("Reason=%q want empty", e.Reason)
	}
	p := e.Problem
	if p.Title != "Invalid Resource" || p.Status != 400 || p.Instance != "995c5cb0-3280-4a6e-808b-3b096d0bb219" {
		t.Fatalf("problem=%#v", p)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "FNAME" {
		t.Fatalf("Errors=%#v", p.Errors)
	}
	if !strings.Contains(trace.all()[0], "FNAME Please enter a value") {
		t.Fatalf("line=%q", trace.all()[0])
	}
	if e.Error() != "400 Invalid Resource: Your merge fields were invalid." {
		t.Fatalf("Error()=%q", e.Error())
	}
}

func TestParse_PartialDocumentKeepsDecodedStatus(t *testing.T) {
	d, _ := newTestDecoder(t)
	e := d.Parse([]byte(`{"title":"Forbidden","status":"nope"}`), http.StatusForbidden)
	if e.Problem.Status != 0 {
		t.Fatalf("Problem.Status=%d, want 0 from decode", e.Problem.Status)
	}
	if e.HTTPStatus != http.StatusForbidden {
		t.Fatalf("HTTPStatus=%d", e.HTTPStatus)
	}
	if e.Error() != "403 Forbidden" {
		t.Fatalf("Error()=%q", e.Error())
	}
}

func TestParse_TrimsRaw(t *testing.T) {
	d, _ := newTestDecoder(t)
	body := []byte("   {\"title\":\"oops\",\"status\":400}  \n")

	e := d.Parse(body, 400)
	if e.Raw != `{"title":"oops","status":400}` {
		t.Fatalf("Raw=%q not trimmed as expected", e.Raw)
	}
}
