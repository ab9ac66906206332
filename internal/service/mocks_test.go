package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/davex-ai/SwiftBites/internal/cache"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/repository"
)

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	cp.StatusHistory = append([]domain.StatusChange{}, o.StatusHistory...)
	return &cp
}

type mockCartRepository struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	err      error
	getCalls int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *mockCartRepository) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	now := time.Now()
	cart, ok := m.carts[userID]
	if !ok {
		cart = &domain.Cart{UserID: userID, CreatedAt: now}
		m.carts[userID] = cart
	}
	cart.UpdatedAt = now
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	item.AddedAt = now
	cart.Items = append(cart.Items, item)
	return nil
}

func (m *mockCartRepository) UpdateItemQuantity(_ context.Context, userID string, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return domain.ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (m *mockCartRepository) RemoveItem(_ context.Context, userID string, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil
	}
	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (m *mockCartRepository) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if cart, ok := m.carts[userID]; ok {
		cart.Items = []domain.CartItem{}
		cart.UpdatedAt = time.Now()
	}
	return nil
}

func (m *mockCartRepository) snapshot() map[string]*domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make(map[string]*domain.Cart, len(m.carts))
	for k, v := range m.carts {
		out[k] = copyCart(v)
	}
	return out
}

func (m *mockCartRepository) restore(carts map[string]*domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts = carts
}

type mockCache struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	versions map[string]int64
	err      error
	// fillGate, when set, holds every Fill until it is closed.
	fillGate chan struct{}
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}, versions: map[string]int64{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return copyCart(cart), nil
}

func (m *mockCache) Version(_ context.Context, userID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.versions[userID], nil
}

func (m *mockCache) Fill(_ context.Context, userID string, version int64, cart *domain.Cart) (bool, error) {
	m.m.RLock()
	gate := m.fillGate
	m.m.RUnlock()
	if gate != nil {
		<-gate
	}

	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.versions[userID] != version {
		return false, nil
	}
	m.carts[userID] = copyCart(cart)
	return true, nil
}

func (m *mockCache) Invalidate(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.versions[userID]++
	delete(m.carts, userID)
	return nil
}

// put seeds a cached cart directly.
func (m *mockCache) put(userID string, cart *domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = copyCart(cart)
}

func (m *mockCache) holdFills() chan struct{} {
	m.m.Lock()
	defer m.m.Unlock()
	m.fillGate = make(chan struct{})
	return m.fillGate
}

func (m *mockCache) has(userID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[userID]
	return ok
}

type mockCatalog struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	err      error
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	c := &mockCatalog{products: map[string]*domain.Product{}}
	for i := range products {
		p := products[i]
		c.products[p.ID] = &p
	}
	return c
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockCatalog) ListProducts(context.Context, string) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, m.err
}

func (m *mockCatalog) setPrice(id string, price float64) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[id].Price = price
}

func (m *mockCatalog) remove(id string) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
}

type mockOrderRepository struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	cartKeys  map[string]string
	err       error
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}, cartKeys: map[string]string{}}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, dup := m.cartKeys[order.CartKey]; dup {
		return domain.ErrDuplicateOrder
	}
	m.orders[order.ID] = copyOrder(order)
	m.cartKeys[order.CartKey] = order.ID
	return nil
}

func (m *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (m *mockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.UserID == userID })
}

func (m *mockOrderRepository) ListOrders(context.Context) ([]*domain.Order, error) {
	return m.list(func(*domain.Order) bool { return true })
}

func (m *mockOrderRepository) list(keep func(*domain.Order) bool) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, id string, change domain.StatusChange) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != change.From {
		return domain.ErrInvalidTransition
	}
	order.Status = change.To
	order.UpdatedAt = change.ChangedAt
	order.StatusHistory = append(order.StatusHistory, change)
	return nil
}

func (m *mockOrderRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

func (m *mockOrderRepository) snapshot() (map[string]*domain.Order, map[string]string) {
	m.m.RLock()
	defer m.m.RUnlock()
	orders := make(map[string]*domain.Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = copyOrder(v)
	}
	keys := make(map[string]string, len(m.cartKeys))
	for k, v := range m.cartKeys {
		keys[k] = v
	}
	return orders, keys
}

func (m *mockOrderRepository) restore(orders map[string]*domain.Order, keys map[string]string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.orders = orders
	m.cartKeys = keys
}

// mockTransactor serializes transactions and rolls every store back when fn fails.
type mockTransactor struct {
	mu     sync.Mutex
	carts  *mockCartRepository
	orders *mockOrderRepository
	outbox *mockOutbox
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	carts := m.carts.snapshot()
	orders, keys := m.orders.snapshot()
	var events []domain.OrderEvent
	if m.outbox != nil {
		events = m.outbox.enqueued()
	}
	if err := fn(ctx); err != nil {
		m.carts.restore(carts)
		m.orders.restore(orders, keys)
		if m.outbox != nil {
			m.outbox.restore(events)
		}
		return err
	}
	return nil
}

type mockOutbox struct {
	m      sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (m *mockOutbox) Enqueue(_ context.Context, event domain.OrderEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockOutbox) enqueued() []domain.OrderEvent {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]domain.OrderEvent(nil), m.events...)
}

func (m *mockOutbox) restore(events []domain.OrderEvent) {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = events
}

type mockWishlistRepository struct {
	m         sync.RWMutex
	wishlists map[string][]string
	err       error
}

func (m *mockWishlistRepository) GetWishlist(_ context.Context, userID string) (*domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Wishlist{UserID: userID, ProductIDs: append([]string{}, m.wishlists[userID]...)}, nil
}

func (m *mockWishlistRepository) AddProduct(_ context.Context, userID string, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, id := range m.wishlists[userID] {
		if id == productID {
			return nil
		}
	}
	m.wishlists[userID] = append(m.wishlists[userID], productID)
	return nil
}

func (m *mockWishlistRepository) RemoveProduct(_ context.Context, userID string, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	ids := m.wishlists[userID]
	for i, id := range ids {
		if id == productID {
			m.wishlists[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

type mockNotificationRepository struct {
	m             sync.RWMutex
	notifications []*domain.Notification
	err           error
}

func (m *mockNotificationRepository) CreateNotification(_ context.Context, n *domain.Notification) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.notifications {
		if existing.EventID == n.EventID {
			return nil
		}
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepository) ListByUserID(_ context.Context, userID string) ([]*domain.Notification, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]*domain.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, m.err
}

func (m *mockNotificationRepository) MarkRead(_ context.Context, userID, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}
