package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

type stubPriceGuideService struct {
	createFn func(ctx context.Context, caller ports.Caller, name string, price decimal.Decimal) (*domain.PriceGuide, error)
	listFn   func(ctx context.Context) ([]*domain.PriceGuide, error)
}

func (s *stubPriceGuideService) Create(ctx context.Context, caller ports.Caller, name string, price decimal.Decimal) (*domain.PriceGuide, error) {
	return s.createFn(ctx, caller, name, price)
}

func (s *stubPriceGuideService) List(ctx context.Context) ([]*domain.PriceGuide, error) {
	return s.listFn(ctx)
}

type stubMediaReader struct {
	objects map[string]string
}

func (s *stubMediaReader) Open(_ context.Context, id string) (*ports.MediaObject, error) {
	body, ok := s.objects[id]
	if !ok {
		return nil, domain.ErrMediaNotFound
	}
	return &ports.MediaObject{
		ReadCloser:  io.NopCloser(strings.NewReader(body)),
		ContentType: "image/png",
		Size:        int64(len(body)),
	}, nil
}

// --- Price guides ---

func TestPriceGuideHandler_List(t *testing.T) {
	e := newEcho()
	stub := &stubPriceGuideService{
		listFn: func(context.Context) ([]*domain.PriceGuide, error) {
			return []*domain.PriceGuide{
				{ID: "g1", GuideNumber: "JLP1700000000001", GuideName: "Small box", Price: decimal.RequireFromString("45")},
			}, nil
		},
	}
	c, rec := newContext(e, http.MethodGet, "/price-guides", "")

	if err := NewPriceGuideHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	items := decodeEnvelope(t, rec)["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 guide, got %d", len(items))
	}
	if g := items[0].(map[string]any); g["price"] != "45.00" || g["guideNumber"] != "JLP1700000000001" {
		t.Errorf("unexpected guide %v", g)
	}
}

func TestPriceGuideHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubPriceGuideService{
		createFn: func(_ context.Context, caller ports.Caller, name string, price decimal.Decimal) (*domain.PriceGuide, error) {
			if !caller.IsAdmin() || name != "Large box" || !price.Equal(decimal.RequireFromString("99.90")) {
				t.Fatalf("unexpected call %+v %s %s", caller, name, price)
			}
			return &domain.PriceGuide{ID: "g2", GuideNumber: "JLP2", GuideName: name, Price: price}, nil
		},
	}
	c, rec := newContext(e, http.MethodPost, "/admin/price-guides", `{"guideName":"Large box","price":"99.90"}`)
	withCaller(c, "admin-1", domain.RoleAdmin)

	if err := NewPriceGuideHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if g := decodeEnvelope(t, rec)["data"].(map[string]any); g["price"] != "99.90" {
		t.Errorf("unexpected price %v", g["price"])
	}
}

func TestPriceGuideHandler_Create_RequiresName(t *testing.T) {
	e := newEcho()
	c, _ := newContext(e, http.MethodPost, "/admin/price-guides", `{"price":10}`)
	withCaller(c, "admin-1", domain.RoleAdmin)

	ve := asValidation(t, NewPriceGuideHandler(&stubPriceGuideService{}).Create(c))
	if !hasField(ve, "guideName") {
		t.Errorf("unexpected fields %+v", ve.Fields)
	}
}

// --- Media ---

func TestMediaHandler_Get_Streams(t *testing.T) {
	e := newEcho()
	h := NewMediaHandler(&stubMediaReader{objects: map[string]string{"abc.png": "PNGDATA"}})
	c, rec := newContext(e, http.MethodGet, "/media/abc.png", "")
	c.SetParamNames("id")
	c.SetParamValues("abc.png")

	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "PNGDATA" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "7" {
		t.Errorf("unexpected content length %q", cl)
	}
}

func TestMediaHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	h := NewMediaHandler(&stubMediaReader{})
	c, _ := newContext(e, http.MethodGet, "/media/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.Get(c); !errors.Is(err, domain.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}
