package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/paceline/internal/plan"
	"github.com/hyperengineering/paceline/internal/store"
)

func TestWriteProblem(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/plans/nope", nil)
	w := httptest.NewRecorder()

	WriteProblem(w, r, http.StatusNotFound, "Resource not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Title != "Not Found" || p.Status != 404 {
		t.Errorf("unexpected problem: %+v", p)
	}
	if p.Instance != "/api/v1/plans/nope" {
		t.Errorf("instance = %q", p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %q", p.Title)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), store.ErrNotFound), http.StatusNotFound},
		{"out of order", store.ErrOutOfOrder, http.StatusConflict},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"missing actuals", plan.ErrMissingActuals, http.StatusUnprocessableEntity},
		{"invalid transition", plan.ErrInvalidTransition, http.StatusConflict},
		{"unknown", errors.New("disk exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			MapDomainError(w, r, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}

			var p Problem
			if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			// Internal detail never leaks.
			if tt.name == "unknown" && p.Detail != "Internal Server Error" {
				t.Errorf("leaked detail: %q", p.Detail)
			}
		})
	}
}
