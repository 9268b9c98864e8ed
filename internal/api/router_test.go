package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/infrastructure/http/handlers"
)

const testSecret = "router-secret"

// stubShipments embeds the interface; only the methods a test touches are set.
type stubShipments struct {
	ports.ShipmentService
	calls []string
}

func (s *stubShipments) TrackShipment(_ context.Context, tn string) (*domain.TrackingView, error) {
	s.calls = append(s.calls, "track")
	if tn == "missing" {
		return nil, domain.ErrShipmentNotFound
	}
	return &domain.TrackingView{TrackingNumber: tn, Status: domain.StatusInTransit}, nil
}

func (s *stubShipments) ListShipments(_ context.Context, caller ports.Caller, _ ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	s.calls = append(s.calls, "list:"+caller.Role)
	return &ports.ListShipmentsResult{Items: []*domain.Shipment{}, Page: 1, Limit: 20}, nil
}

func (s *stubShipments) DashboardStats(context.Context, ports.Caller) (*ports.ShipmentStats, error) {
	s.calls = append(s.calls, "stats")
	return &ports.ShipmentStats{}, nil
}

func newTestRouter(shipments *stubShipments) http.Handler {
	return NewRouter(Deps{
		Shipments: shipments,
		Checks: map[string]handlers.Check{
			"mongodb": func(context.Context) error { return nil },
		},
		JWTSecret: testSecret,
		Logger:    zerolog.Nop(),
		Registry:  prometheus.NewRegistry(),
	})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"email":   "ada@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func do(h http.Handler, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_OperationalRoutes(t *testing.T) {
	h := newTestRouter(&stubShipments{})

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := do(h, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_TrackIsPublic(t *testing.T) {
	stub := &stubShipments{}
	h := newTestRouter(stub)

	rec := do(h, http.MethodGet, "/shipments/track/TRK1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/shipments/track/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if len(stub.calls) != 2 {
		t.Errorf("expected 2 track calls, got %v", stub.calls)
	}
}

func TestRouter_ShipmentsRequireToken(t *testing.T) {
	stub := &stubShipments{}
	h := newTestRouter(stub)

	rec := do(h, http.MethodGet, "/shipments", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected error envelope, got %v", body)
	}

	if rec := do(h, http.MethodGet, "/shipments", bearer(t, domain.RoleUser)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if len(stub.calls) != 1 || stub.calls[0] != "list:user" {
		t.Errorf("unexpected calls %v", stub.calls)
	}
}

func TestRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/admin/dashboard/stats"},
		{http.MethodGet, "/admin/shipments"},
		{http.MethodPost, "/shipments/assign-driver"},
		{http.MethodPost, "/admin/price-guides"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			stub := &stubShipments{}
			h := newTestRouter(stub)

			for _, role := range []string{domain.RoleUser, domain.RoleDriver} {
				if rec := do(h, tc.method, tc.path, bearer(t, role)); rec.Code != http.StatusForbidden {
					t.Errorf("%s: expected 403, got %d", role, rec.Code)
				}
			}
			if len(stub.calls) != 0 {
				t.Errorf("handler must not run, got %v", stub.calls)
			}
		})
	}
}

func TestRouter_AdminStats(t *testing.T) {
	stub := &stubShipments{}
	h := newTestRouter(stub)

	rec := do(h, http.MethodGet, "/admin/dashboard/stats", bearer(t, domain.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"totalRevenue":"0.00"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := do(newTestRouter(&stubShipments{}), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_PhotoUploadBodyLimit(t *testing.T) {
	shipments := &stubShipments{}
	h := newTestRouter(shipments)

	req := httptest.NewRequest(http.MethodPatch, "/shipments/s1/photos", strings.NewReader("x"))
	req.Header.Set("Authorization", bearer(t, domain.RoleUser))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.ContentLength = 200 << 20
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(shipments.calls) != 0 {
		t.Errorf("service must not be reached, got %v", shipments.calls)
	}
}
