package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/server/http/dto"
	"github.com/fueldrop/fueldrop/internal/server/http/middleware"
	testhelpers "github.com/fueldrop/fueldrop/internal/test"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authAs(userID int64, role model.Role) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, userID)
		c.Set(middleware.RoleContextKey, role)
	}
}

func performRequest(t *testing.T, method, path, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCurrentIdentityHelpers(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}
	if got := CurrentRole(c); got != "" {
		t.Fatalf("expected empty role when not set, got %q", got)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	c.Set(middleware.RoleContextKey, model.RoleDriver)
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := CurrentRole(c); got != model.RoleDriver {
		t.Fatalf("expected driver, got %q", got)
	}
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domainErrors.Invalid("quantity", "too small"), http.StatusBadRequest},
		{domainErrors.ErrPermission, http.StatusForbidden},
		{domainErrors.ErrNotEligible, http.StatusForbidden},
		{domainErrors.ErrNotFound, http.StatusNotFound},
		{domainErrors.ErrConflict, http.StatusConflict},
		{domainErrors.ErrAlreadyRated, http.StatusConflict},
		{domainErrors.ErrUpstream, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		resp := performRequest(t, http.MethodGet, "/", "/", func(c *gin.Context) {
			RespondError(c, tc.err)
		}, nil, nil)
		if resp.Code != tc.want {
			t.Errorf("RespondError(%v) = %d, want %d", tc.err, resp.Code, tc.want)
		}
	}
}

func TestOrderHandlerPlace(t *testing.T) {
	var captured usecase.PlaceOrderInput
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			PlaceFn: func(ctx context.Context, in usecase.PlaceOrderInput) (*model.Order, error) {
				captured = in
				return &model.Order{ID: 1, Number: "FD1", CustomerID: in.CustomerID, Status: model.OrderStatusPending, Total: 117690}, nil
			},
		},
	}
	body, _ := json.Marshal(dto.PlaceOrderRequest{
		FuelType:      "petrol",
		Quantity:      10,
		PaymentMethod: "gateway",
		Address:       dto.AddressPayload{Line: "14 MG Road", Latitude: 12.9716, Longitude: 77.5946},
	})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Place, authAs(5, model.RoleCustomer), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if captured.CustomerID != 5 || captured.QuantityMilli != 10000 || captured.FuelType != model.FuelPetrol {
		t.Fatalf("unexpected input passed to facade: %+v", captured)
	}

	var got dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Total != 1176.90 {
		t.Fatalf("expected total 1176.90, got %f", got.Total)
	}
}

func TestOrderHandlerPlaceRoundsQuantity(t *testing.T) {
	var captured usecase.PlaceOrderInput
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			PlaceFn: func(ctx context.Context, in usecase.PlaceOrderInput) (*model.Order, error) {
				captured = in
				return &model.Order{ID: 1, CustomerID: in.CustomerID}, nil
			},
		},
	}
	// 1.15 cannot be represented exactly in binary; truncation would
	// yield 1149 milli-litres.
	body, _ := json.Marshal(dto.PlaceOrderRequest{
		FuelType:      "diesel",
		Quantity:      1.15,
		PaymentMethod: "cash",
		Address:       dto.AddressPayload{Line: "14 MG Road", Latitude: 12.9716, Longitude: 77.5946},
	})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Place, authAs(5, model.RoleCustomer), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if captured.QuantityMilli != 1150 {
		t.Fatalf("expected 1150 milli-litres, got %d", captured.QuantityMilli)
	}
}

func TestOrderHandlerPlaceRejectsBadJSON(t *testing.T) {
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(testhelpers.DeliveryFacadeStub{}).Place, authAs(5, model.RoleCustomer), []byte("{broken"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerListEmpty(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			ListFn: func(context.Context, int64, model.Role) ([]model.Order, error) { return nil, nil },
		},
	}
	resp := performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(facade).List, authAs(5, model.RoleCustomer), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for empty list, got %d", resp.Code)
	}
}

func TestOrderHandlerGetInvalidID(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/abc", NewOrderHandler(testhelpers.DeliveryFacadeStub{}).Get, authAs(5, model.RoleCustomer), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.Code)
	}
}

func TestOrderHandlerAcceptConflict(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			AcceptFn: func(context.Context, int64, int64, model.Role) (*model.Order, error) {
				return nil, domainErrors.ErrConflict
			},
		},
	}
	resp := performRequest(t, http.MethodPost, "/orders/:id/accept", "/orders/1/accept", NewOrderHandler(facade).Accept, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("losing driver should get 409, got %d", resp.Code)
	}
}

func TestOrderHandlerAdvance(t *testing.T) {
	var captured usecase.AdvanceInput
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			AdvanceFn: func(ctx context.Context, in usecase.AdvanceInput) (*model.Order, error) {
				captured = in
				return &model.Order{ID: in.OrderID, Status: in.To}, nil
			},
		},
	}
	body, _ := json.Marshal(dto.AdvanceRequest{Status: "completed", Proof: "sig:ab"})
	resp := performRequest(t, http.MethodPost, "/orders/:id/advance", "/orders/7/advance", NewOrderHandler(facade).Advance, authAs(9, model.RoleDriver), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if captured.OrderID != 7 || captured.DriverID != 9 || captured.To != model.OrderStatusCompleted || captured.Proof != "sig:ab" {
		t.Fatalf("unexpected advance input %+v", captured)
	}
}

func TestOrderHandlerRateValidation(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			RateFn: func(context.Context, int64, int64, model.Role, int, string) (*model.Order, error) {
				return nil, domainErrors.Invalid("score", "must be between 1 and 5")
			},
		},
	}
	body, _ := json.Marshal(dto.RateRequest{Score: 9})
	resp := performRequest(t, http.MethodPost, "/orders/:id/rating", "/orders/1/rating", NewOrderHandler(facade).Rate, authAs(5, model.RoleCustomer), body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPaymentHandlerWebhook(t *testing.T) {
	var gotSignature string
	var gotPayload []byte
	facade := testhelpers.DeliveryFacadeStub{
		PaymentFacadeStub: testhelpers.PaymentFacadeStub{
			WebhookFn: func(ctx context.Context, payload []byte, signature string) error {
				gotPayload, gotSignature = payload, signature
				return nil
			},
		},
	}

	router := gin.New()
	router.POST("/webhook", NewPaymentHandler(facade).Webhook)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{"type":"payment.succeeded"}`)))
	req.Header.Set(SignatureHeader, "abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotSignature != "abc123" || string(gotPayload) != `{"type":"payment.succeeded"}` {
		t.Fatalf("handler must pass raw body and signature through, got %q %q", gotPayload, gotSignature)
	}
}

func TestPaymentHandlerWebhookBadSignature(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		PaymentFacadeStub: testhelpers.PaymentFacadeStub{
			WebhookFn: func(context.Context, []byte, string) error {
				return domainErrors.ErrSignature
			},
		},
	}
	resp := performRequest(t, http.MethodPost, "/webhook", "/webhook", NewPaymentHandler(facade).Webhook, nil, []byte("{}"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unverified webhook should get 400, got %d", resp.Code)
	}
}

func TestPaymentHandlerConfirm(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		PaymentFacadeStub: testhelpers.PaymentFacadeStub{
			ConfirmFn: func(ctx context.Context, orderID, customerID int64, intentRef string) (*model.Order, error) {
				if orderID != 3 || customerID != 5 || intentRef != "pi_42" {
					t.Fatalf("unexpected confirm args %d %d %q", orderID, customerID, intentRef)
				}
				return &model.Order{ID: orderID, PaymentStatus: model.PaymentStatusPaid}, nil
			},
		},
	}
	body, _ := json.Marshal(dto.ConfirmPaymentRequest{IntentRef: "pi_42"})
	resp := performRequest(t, http.MethodPost, "/orders/:id/payment/confirm", "/orders/3/payment/confirm", NewPaymentHandler(facade).Confirm, authAs(5, model.RoleCustomer), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestPaymentHandlerRefundUpstreamFailure(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		PaymentFacadeStub: testhelpers.PaymentFacadeStub{
			RefundFn: func(context.Context, int64, int64, model.Role) (*model.Order, error) {
				return nil, domainErrors.ErrUpstream
			},
		},
	}
	resp := performRequest(t, http.MethodPost, "/orders/:id/refund", "/orders/3/refund", NewPaymentHandler(facade).Refund, authAs(5, model.RoleCustomer), nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("gateway failure should surface as 502, got %d", resp.Code)
	}
}

func TestDriverHandlerAvailable(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			AvailableFn: func(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error) {
				if driverID != 9 || lat != 12.97 || lng != 77.59 || radiusKm != 5 {
					t.Fatalf("unexpected query args %d %f %f %f", driverID, lat, lng, radiusKm)
				}
				return []model.Order{{ID: 1, Status: model.OrderStatusConfirmed}}, nil
			},
		},
	}
	resp := performRequest(t, http.MethodGet, "/available", "/available?lat=12.97&lng=77.59&radius_km=5", NewDriverHandler(facade).Available, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestDriverHandlerAvailableDefaultsRadius(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			AvailableFn: func(ctx context.Context, driverID int64, lat, lng, radiusKm float64) ([]model.Order, error) {
				if radiusKm != defaultSearchRadiusKm {
					t.Fatalf("expected default radius, got %f", radiusKm)
				}
				return nil, nil
			},
		},
	}
	resp := performRequest(t, http.MethodGet, "/available", "/available?lat=12.97&lng=77.59", NewDriverHandler(facade).Available, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for no matches, got %d", resp.Code)
	}
}

func TestDriverHandlerAvailableRequiresCoordinates(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/available", "/available", NewDriverHandler(testhelpers.DeliveryFacadeStub{}).Available, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without coordinates, got %d", resp.Code)
	}
}

func TestDriverHandlerAvailableNotEligible(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			AvailableFn: func(context.Context, int64, float64, float64, float64) ([]model.Order, error) {
				return nil, domainErrors.ErrNotEligible
			},
		},
	}
	resp := performRequest(t, http.MethodGet, "/available", "/available?lat=12.97&lng=77.59", NewDriverHandler(facade).Available, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("ineligible driver should get 403, got %d", resp.Code)
	}
}

func TestDriverHandlerStatusAndLocation(t *testing.T) {
	var online *bool
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			OnlineFn: func(ctx context.Context, driverID int64, role model.Role, v bool) error {
				online = &v
				return nil
			},
		},
	}

	body, _ := json.Marshal(dto.DriverStatusRequest{Online: true})
	resp := performRequest(t, http.MethodPost, "/status", "/status", NewDriverHandler(facade).Status, authAs(9, model.RoleDriver), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if online == nil || !*online {
		t.Fatal("expected online=true passed to facade")
	}

	body, _ = json.Marshal(dto.LocationRequest{Latitude: 12.98, Longitude: 77.6})
	resp = performRequest(t, http.MethodPost, "/location", "/location", NewDriverHandler(facade).Location, authAs(9, model.RoleDriver), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestDriverHandlerProfile(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			ProfileFn: func(ctx context.Context, userID int64) (*model.User, error) {
				return &model.User{ID: userID, Name: "Asha", Role: model.RoleDriver, Active: true, RatingSum: 12, RatingCount: 3}, nil
			},
		},
	}
	resp := performRequest(t, http.MethodGet, "/profile", "/profile", NewDriverHandler(facade).Profile, authAs(9, model.RoleDriver), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got dto.ProfileResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Rating != 4.0 || got.RatingCount != 3 {
		t.Fatalf("unexpected reputation %f/%d", got.Rating, got.RatingCount)
	}
}

func TestAdminHandlerOverride(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			OverrideFn: func(ctx context.Context, orderID int64, role model.Role, to model.OrderStatus, reason string) (*model.Order, error) {
				if role != model.RoleAdmin || to != model.OrderStatusConfirmed || reason != "support ticket 112" {
					t.Fatalf("unexpected override args %s %s %q", role, to, reason)
				}
				return &model.Order{ID: orderID, Status: to}, nil
			},
		},
	}
	body, _ := json.Marshal(dto.OverrideRequest{Status: "confirmed", Reason: "support ticket 112"})
	resp := performRequest(t, http.MethodPost, "/admin/orders/:id/override", "/admin/orders/4/override", NewAdminHandler(facade).Override, authAs(1, model.RoleAdmin), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAdminHandlerApprovalForbiddenForNonAdmin(t *testing.T) {
	facade := testhelpers.DeliveryFacadeStub{
		DriverFacadeStub: testhelpers.DriverFacadeStub{
			ApprovalFn: func(ctx context.Context, driverID int64, role model.Role, approved bool, reason string) error {
				return domainErrors.ErrPermission
			},
		},
	}
	body, _ := json.Marshal(dto.ApprovalRequest{Approved: true})
	resp := performRequest(t, http.MethodPost, "/admin/drivers/:id/approval", "/admin/drivers/9/approval", NewAdminHandler(facade).Approval, authAs(5, model.RoleCustomer), body)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}
