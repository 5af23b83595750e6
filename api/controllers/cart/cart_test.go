package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdto "github.com/angelmondragon/memberclub-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/memberclub-backend/api/middleware"
	cartsvc "github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/checkout"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

type stubCartService struct {
	entry      *models.CartEntry
	view       *cartsvc.View
	removed    *cartsvc.RemovedEntry
	err        error
	lastMember cartsvc.Member
	lastItem   uuid.UUID
	lastQty    int
	lastEntry  uuid.UUID
}

func (s *stubCartService) Add(ctx context.Context, member cartsvc.Member, itemID uuid.UUID, quantity int) (*models.CartEntry, error) {
	s.lastMember, s.lastItem, s.lastQty = member, itemID, quantity
	return s.entry, s.err
}

func (s *stubCartService) Remove(ctx context.Context, member cartsvc.Member, entryID uuid.UUID) (*cartsvc.RemovedEntry, error) {
	s.lastMember, s.lastEntry = member, entryID
	return s.removed, s.err
}

func (s *stubCartService) List(ctx context.Context, member cartsvc.Member) (*cartsvc.View, error) {
	s.lastMember = member
	return s.view, s.err
}

type stubCheckoutService struct {
	result *checkout.Result
	err    error
}

func (s *stubCheckoutService) Checkout(ctx context.Context, member cartsvc.Member) (*checkout.Result, error) {
	return s.result, s.err
}

func withMember(req *http.Request, memberID uuid.UUID, tierID *uuid.UUID) *http.Request {
	ctx := middleware.WithPrincipal(req.Context(), middleware.Principal{MemberID: memberID, Role: "member", TierID: tierID})
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
}

func TestCartAddCreated(t *testing.T) {
	memberID, tierID, itemID := uuid.New(), uuid.New(), uuid.New()
	svc := &stubCartService{entry: &models.CartEntry{
		ID:          uuid.New(),
		MemberID:    memberID,
		ItemID:      itemID,
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("17"),
		TotalAmount: decimal.RequireFromString("51"),
		CreatedAt:   time.Now(),
	}}
	body := `{"item_id":"` + itemID.String() + `","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req = withMember(req, memberID, &tierID)

	resp := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	var entry cartdto.Entry
	decodeData(t, resp, &entry)
	assert.Equal(t, "17.00", entry.UnitPrice)
	assert.Equal(t, "51.00", entry.TotalAmount)
	assert.Equal(t, memberID, svc.lastMember.ID)
	require.NotNil(t, svc.lastMember.TierID)
	assert.Equal(t, tierID, *svc.lastMember.TierID)
	assert.Equal(t, itemID, svc.lastItem)
	assert.Equal(t, 3, svc.lastQty)
}

func TestCartAddRejectsInvalidBody(t *testing.T) {
	cases := map[string]string{
		"zero quantity":     `{"item_id":"` + uuid.NewString() + `","quantity":0}`,
		"missing item":      `{"quantity":1}`,
		"unknown field":     `{"item_id":"` + uuid.NewString() + `","quantity":1,"price":"1"}`,
		"empty body":        ``,
		"negative quantity": `{"item_id":"` + uuid.NewString() + `","quantity":-2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCartService{}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
			req = withMember(req, uuid.New(), nil)

			resp := httptest.NewRecorder()
			CartAdd(svc, nil).ServeHTTP(resp, req)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, uuid.Nil, svc.lastItem)
		})
	}
}

func TestCartAddRequiresMember(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CartAdd(&stubCartService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddMapsDomainErrors(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeItemNotFound, http.StatusNotFound},
		{pkgerrors.CodeInsufficientStock, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			svc := &stubCartService{err: pkgerrors.New(tc.code, "rejected")}
			body := `{"item_id":"` + uuid.NewString() + `","quantity":1}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
			req = withMember(req, uuid.New(), nil)

			resp := httptest.NewRecorder()
			CartAdd(svc, nil).ServeHTTP(resp, req)

			assert.Equal(t, tc.status, resp.Code)
			assert.Contains(t, resp.Body.String(), string(tc.code))
		})
	}
}

func TestCartRemove(t *testing.T) {
	entryID := uuid.New()
	svc := &stubCartService{removed: &cartsvc.RemovedEntry{EntryID: entryID, ItemID: uuid.New(), RestoredUnits: 3}}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+entryID.String(), nil)
	req = withMember(req, uuid.New(), nil)
	req = withURLParam(req, "entryId", entryID.String())

	resp := httptest.NewRecorder()
	CartRemove(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var removed cartdto.Removed
	decodeData(t, resp, &removed)
	assert.Equal(t, 3, removed.RestoredUnits)
	assert.Equal(t, entryID, svc.lastEntry)
}

func TestCartRemoveInvalidEntryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/nope", nil)
	req = withMember(req, uuid.New(), nil)
	req = withURLParam(req, "entryId", "nope")

	resp := httptest.NewRecorder()
	CartRemove(&stubCartService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartFetch(t *testing.T) {
	view := &cartsvc.View{
		Lines: []cartsvc.Line{{
			EntryID:         uuid.New(),
			ItemID:          uuid.New(),
			ItemName:        "Protein bar",
			Quantity:        1,
			ItemPrice:       decimal.RequireFromString("20"),
			UnitPrice:       decimal.RequireFromString("17"),
			DiscountApplied: decimal.RequireFromString("3.5"),
			TotalPrice:      decimal.RequireFromString("17"),
		}},
		Total: decimal.RequireFromString("17"),
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = withMember(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{view: view}, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var out cartdto.Cart
	decodeData(t, resp, &out)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "3.50", out.Items[0].DiscountApplied)
	assert.Equal(t, "17.00", out.TotalPrice)
}

func TestCartFetchEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = withMember(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{view: &cartsvc.View{Total: decimal.Zero}}, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items":[]`)
	assert.Contains(t, resp.Body.String(), `"total_price":"0.00"`)
}

func TestCheckout(t *testing.T) {
	expires := time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC)
	svc := &stubCheckoutService{result: &checkout.Result{
		TotalAmount:     decimal.RequireFromString("100"),
		Cashback:        decimal.RequireFromString("5"),
		EntryCount:      2,
		CashbackBalance: decimal.RequireFromString("7.5"),
		CashbackExpires: &expires,
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = withMember(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var out cartdto.CheckoutResult
	decodeData(t, resp, &out)
	assert.Equal(t, "100.00", out.TotalAmount)
	assert.Equal(t, "5.00", out.Cashback)
	assert.Equal(t, "7.50", out.CashbackBalance)
	require.NotNil(t, out.CashbackExpires)
	assert.True(t, expires.Equal(*out.CashbackExpires))
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = withMember(req, uuid.New(), nil)

	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "EMPTY_CART")
}

func TestHandlersWithoutService(t *testing.T) {
	req := withMember(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), uuid.New(), nil)
	resp := httptest.NewRecorder()
	CartFetch(nil, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	resp = httptest.NewRecorder()
	Checkout(nil, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
