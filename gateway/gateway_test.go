package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/pizzashop/pkg/auth"
	"github.com/example/pizzashop/pkg/cart"
	"github.com/example/pizzashop/pkg/config"
	"github.com/example/pizzashop/pkg/order"
	"github.com/example/pizzashop/pkg/session"
	"github.com/example/pizzashop/pkg/store"
)

type memoryCredentials struct {
	users map[string]*auth.UserRecord
}

func (m *memoryCredentials) FindByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	rec, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (m *memoryCredentials) Insert(_ context.Context, rec *auth.UserRecord) error {
	m.users[rec.Email] = rec
	return nil
}

type memoryFlags struct {
	active bool
}

func (m *memoryFlags) SetAdminSession(context.Context) error { m.active = true; return nil }

func (m *memoryFlags) AdminSession(context.Context) (bool, error) { return m.active, nil }

func (m *memoryFlags) ClearAdminSession(context.Context) error { m.active = false; return nil }

type harness struct {
	router http.Handler
	store  *store.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			BcryptCost:      bcrypt.MinCost,
			MinPasswordLen:  6,
			AdminSessionKey: "session:admin",
		},
	}

	mem := store.NewMemory()
	sess := session.New()
	c := cart.New(mem, logger)
	c.Bind(sess)
	observer := order.NewObserver(mem, logger)
	observer.Bind(sess)
	placer := order.NewPlacer(mem, logger, c)
	applier := order.NewApplier(mem, logger)

	creds := &memoryCredentials{users: make(map[string]*auth.UserRecord)}
	authSvc := auth.NewService(creds, &memoryFlags{}, sess, logger, cfg.Auth)

	g := New(cfg, logger, sess, authSvc, c, placer, observer, applier)
	g.SetupRoutes()
	return &harness{router: g.Router(), store: mem}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToppingsCatalogIsPublic(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/catalog/toppings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	toppings := body["toppings"].([]interface{})
	assert.NotEmpty(t, toppings)
}

func TestAddCartItemRequiresSignIn(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"name": "Margherita", "price": 199,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignUpValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "not-an-email", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1", "displayName": "Alice",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1", "displayName": "Alice",
	}).Code)

	w := h.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]interface{}{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]interface{}{
		"email": "ghost@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1", "displayName": "Alice",
	}).Code)

	w = h.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/admin", nil).Code)
	w = h.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1", "displayName": "Alice",
	}).Code)

	w := h.do(t, http.MethodPost, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStorefrontFlow(t *testing.T) {
	h := newHarness(t)

	// Sign up and build a cart: one menu pizza, one custom pizza.
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"email": "alice@example.com", "password": "secret1", "displayName": "Alice",
	}).Code)

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"name": "Margherita", "description": "Classic delight", "price": 199,
	}).Code)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"toppings": map[string]int{"Onion": 1, "Paneer": 3},
	}).Code)

	w := h.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(344), body["total"])
	require.Len(t, body["items"].([]interface{}), 2)

	// Place the order: one persisted order per cart item, cart cleared.
	w = h.do(t, http.MethodPost, "/api/v1/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["orderId"])

	w = h.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, float64(0), decodeBody(t, w)["total"])

	w = h.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decodeBody(t, w)["orders"].([]interface{})
	require.Len(t, orders, 2)

	// The admin sees the same orders through the cross-customer view and
	// delivers one of them.
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/admin", nil).Code)

	w = h.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeBody(t, w)["orders"].([]interface{})
	require.Len(t, all, 2)
	first := all[0].(map[string]interface{})
	docPath := first["documentPath"].(string)
	require.NotEmpty(t, docPath)
	assert.Equal(t, "pending", first["status"])

	w = h.do(t, http.MethodPost, "/api/v1/admin/orders/status", map[string]interface{}{
		"documentPath": docPath, "status": "delivered",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The transition is one-shot; a second attempt conflicts.
	w = h.do(t, http.MethodPost, "/api/v1/admin/orders/status", map[string]interface{}{
		"documentPath": docPath, "status": "cancelled",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	delivered := 0
	for _, raw := range decodeBody(t, w)["orders"].([]interface{}) {
		if raw.(map[string]interface{})["status"] == "delivered" {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)

	// Signing out drops the identity and its projections.
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/signout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/v1/auth/me", nil).Code)
	w = h.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Empty(t, decodeBody(t, w)["orders"])

	// The cleared cart's remote records are gone as well.
	assert.Eventually(t, func() bool {
		return len(h.store.Dump(store.CartPath("Alice"))) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStatusUpdateUnknownOrderIs404(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/auth/admin", nil).Code)

	w := h.do(t, http.MethodPost, "/api/v1/admin/orders/status", map[string]interface{}{
		"documentPath": "customers/ghost/orders/missing", "status": "delivered",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
