package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	products map[string]*domain.Product
	err      error
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, f.err
}

func (f *fakeCatalog) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Product
	for _, p := range f.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// The service fakes refuse anonymous callers the way the real services do.
type fakeCartService struct {
	lines   []domain.CartLine
	err     error
	lastQty int
	lastID  string
}

func (f *fakeCartService) AddItem(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastID, f.lastQty = productID, quantity
	return f.lines, f.err
}

func (f *fakeCartService) UpdateQuantity(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastID, f.lastQty = productID, quantity
	return f.lines, f.err
}

func (f *fakeCartService) RemoveItem(ctx context.Context, id domain.Identity, productID string) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastID = productID
	return f.lines, f.err
}

func (f *fakeCartService) Clear(ctx context.Context, id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return f.err
}

func (f *fakeCartService) List(ctx context.Context, id domain.Identity) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return f.lines, f.err
}

func (f *fakeCartService) Summary(ctx context.Context, id domain.Identity) (*service.CartSummary, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.CartSummary{Items: f.lines}, nil
}

type fakeWishlistService struct {
	products []domain.Product
	err      error
	lastID   string
}

func (f *fakeWishlistService) Add(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastID = productID
	return f.products, f.err
}

func (f *fakeWishlistService) Remove(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastID = productID
	return f.products, f.err
}

func (f *fakeWishlistService) List(ctx context.Context, id domain.Identity) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return f.products, f.err
}

type fakeOrderService struct {
	order      *domain.Order
	orders     []*domain.Order
	err        error
	lastReq    service.PlaceOrderRequest
	lastStatus string
	lastCaller domain.Identity
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, id domain.Identity, req service.PlaceOrderRequest) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastCaller, f.lastReq = id, req
	return f.order, f.err
}

func (f *fakeOrderService) SetStatus(ctx context.Context, id domain.Identity, orderID, status string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastCaller, f.lastStatus = id, status
	return f.order, f.err
}

func (f *fakeOrderService) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastCaller = id
	return f.order, f.err
}

func (f *fakeOrderService) ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastCaller = id
	return f.orders, f.err
}

func (f *fakeOrderService) ListAllOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	f.lastCaller = id
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return f.orders, f.err
}

type fakeNotificationService struct {
	list   []*domain.Notification
	err    error
	lastID string
}

func (f *fakeNotificationService) ListMine(ctx context.Context, id domain.Identity) ([]*domain.Notification, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return f.list, f.err
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, id domain.Identity, notificationID string) error {
	if !id.Authenticated() {
		return domain.ErrUnauthenticated
	}
	f.lastID = notificationID
	return f.err
}

type testServer struct {
	handler       http.Handler
	catalog       *fakeCatalog
	cart          *fakeCartService
	wishlist      *fakeWishlistService
	orders        *fakeOrderService
	notifications *fakeNotificationService
}

func newTestServer(t *testing.T, checks ...HealthCheck) *testServer {
	t.Helper()

	l := zap.NewNop()
	ts := &testServer{
		catalog: &fakeCatalog{products: map[string]*domain.Product{
			"tomatoes-basket": {ID: "tomatoes-basket", Name: "Tomatoes basket", Price: 1000, Stock: 10, Category: "vegetables"},
			"eggs-crate":      {ID: "eggs-crate", Name: "Eggs crate", Price: 4200, Stock: 0, Category: "dairy"},
		}},
		cart:          &fakeCartService{},
		wishlist:      &fakeWishlistService{},
		orders:        &fakeOrderService{},
		notifications: &fakeNotificationService{},
	}
	ts.handler = NewRouter(Handlers{
		Products:      NewProductHandler(ts.catalog, l, time.Second),
		Cart:          NewCartHandler(ts.cart, l, time.Second),
		Wishlist:      NewWishlistHandler(ts.wishlist, l, time.Second),
		Orders:        NewOrdersHandler(ts.orders, l, time.Second),
		Notifications: NewNotificationHandler(ts.notifications, l, time.Second),
	}, auth.HeaderAuthenticator{}, l, 5*time.Second, checks...)
	return ts
}

// do sends a request as userID (anonymous when empty) and returns the recorder.
func (ts *testServer) do(t *testing.T, method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(auth.HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(auth.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
