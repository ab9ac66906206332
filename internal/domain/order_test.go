package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName: "Ada Obi",
		Address:  "12 Marina Road",
		City:     "Lagos",
		Phone:    "08012345678",
	}
}

func TestShippingAddress_Valid(t *testing.T) {
	require.NoError(t, validAddress().Validate())
}

func TestShippingAddress_MissingField(t *testing.T) {
	a := validAddress()
	a.City = "   "
	assert.ErrorIs(t, a.Validate(), ErrInvalidShippingInfo)
}

func TestShippingAddress_Phone(t *testing.T) {
	for _, phone := range []string{"123456789", "1234567890123456", "+2348012345678", "0801-234-5678"} {
		a := validAddress()
		a.Phone = phone
		assert.ErrorIs(t, a.Validate(), ErrInvalidShippingInfo, phone)
	}

	a := validAddress()
	a.Phone = "123456789012345"
	assert.NoError(t, a.Validate())
}

func TestCartKey_StableAcrossItemOrder(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Cart{UserID: "u1", UpdatedAt: updated, Items: []CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}}
	b := &Cart{UserID: "u1", UpdatedAt: updated, Items: []CartItem{
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	}}

	assert.Equal(t, CartKey(a), CartKey(b))
}

func TestCartKey_ChangesWithCart(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Cart{UserID: "u1", UpdatedAt: updated, Items: []CartItem{{ProductID: "p1", Quantity: 2}}}
	b := &Cart{UserID: "u1", UpdatedAt: updated, Items: []CartItem{{ProductID: "p1", Quantity: 3}}}
	c := &Cart{UserID: "u1", UpdatedAt: updated.Add(time.Second), Items: []CartItem{{ProductID: "p1", Quantity: 2}}}

	assert.NotEqual(t, CartKey(a), CartKey(b))
	assert.NotEqual(t, CartKey(a), CartKey(c))
}
