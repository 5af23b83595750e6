package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

type addRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "valid", body: `{"item_id":"` + uuid.NewString() + `","quantity":2}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"item_id":"x","quantity":1,"extra":true}`, wantErr: true},
		{name: "bad uuid", body: `{"item_id":"nope","quantity":1}`, wantErr: true, field: "item_id"},
		{name: "zero quantity", body: `{"item_id":"` + uuid.NewString() + `","quantity":0}`, wantErr: true, field: "quantity"},
		{name: "trailing data", body: `{"item_id":"` + uuid.NewString() + `","quantity":1}{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest addRequest
			err := DecodeJSONBody(req, &dest)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tt.field != "" {
				details, ok := pkgerrors.As(err).Details().(map[string]string)
				if !ok || details[tt.field] == "" {
					t.Fatalf("expected detail for %s, got %v", tt.field, pkgerrors.As(err).Details())
				}
			}
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?available=false", nil)
	got, err := ParseQueryBool(req, "available", true)
	if err != nil || got {
		t.Fatalf("expected false, got %v err=%v", got, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if got, _ := ParseQueryBool(req, "available", true); !got {
		t.Fatalf("expected default true")
	}
	req = httptest.NewRequest(http.MethodGet, "/?available=maybe", nil)
	if _, err := ParseQueryBool(req, "available", true); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("entryId", value)
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "entryId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s err=%v", id, got, err)
	}
	if _, err := ParseUUIDParam(withParam("bogus"), "entryId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(withParam(""), "entryId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty, got %v", err)
	}
}
