package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(userID, cartKey string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:      uuid.NewString(),
		UserID:  userID,
		CartKey: cartKey,
		Items: []domain.OrderItem{
			{ProductID: "rice-ofada-5kg", ProductName: "Ofada Rice 5kg", Price: 8500, Quantity: 1},
		},
		ShippingAddress: domain.ShippingAddress{FullName: "Ada Obi", Address: "12 Allen Ave", City: "Ikeja", Phone: "08031234567"},
		PaymentMethod:   domain.PaymentCashOnDelivery,
		Subtotal:        8500,
		ShippingFee:     1500,
		Tax:             637.5,
		TotalAmount:     10637.5,
		Status:          domain.OrderStatusPending,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestCreateOrder_GetByID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := testOrder("user1", "key-1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, repo.CreateOrder(ctx, order))

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.UserID, got.UserID)
	assert.Equal(t, order.Items, got.Items)
	assert.Equal(t, order.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, 10637.5, got.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	_, err := repo.GetOrderByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCreateOrder_DuplicateCartKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateOrder(ctx, testOrder("user1", "same-key", time.Now())))
	err := repo.CreateOrder(ctx, testOrder("user1", "same-key", time.Now()))
	assert.ErrorIs(t, err, domain.ErrDuplicateOrder)
}

func TestListOrders_NewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := testOrder("user1", "k1", base.Add(-time.Hour))
	newer := testOrder("user1", "k2", base)
	other := testOrder("user2", "k3", base.Add(-time.Minute))
	for _, o := range []*domain.Order{older, newer, other} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	mine, err := repo.ListOrdersByUserID(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)

	all, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newer.ID, other.ID, older.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	none, err := repo.ListOrdersByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := testOrder("user1", "k1", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	change := domain.StatusChange{
		From:      domain.OrderStatusPending,
		To:        domain.OrderStatusPaid,
		ChangedBy: "admin1",
		ChangedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, change))

	got, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, "admin1", got.StatusHistory[0].ChangedBy)

	// stale From
	err = repo.UpdateStatus(ctx, order.ID, change)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = repo.UpdateStatus(ctx, uuid.NewString(), change)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	orders := NewOrderRepository(db)
	carts := NewCartRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	require.NoError(t, carts.AddItem(ctx, "user1", domain.CartItem{ProductID: "palm-oil-1l", Quantity: 1}))

	boom := errors.New("boom")
	order := testOrder("user1", "k1", time.Now().UTC())
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := carts.ClearCart(ctx, "user1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = orders.GetOrderByID(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	cart, err := carts.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestTransaction_Commits(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	orders := NewOrderRepository(db)
	carts := NewCartRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	require.NoError(t, carts.AddItem(ctx, "user1", domain.CartItem{ProductID: "palm-oil-1l", Quantity: 1}))

	order := testOrder("user1", "k1", time.Now().UTC())
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		return carts.ClearCart(ctx, "user1")
	})
	require.NoError(t, err)

	_, err = orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	cart, err := carts.GetCart(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
