// AngelaMos | 2026
// workflow_test.go

package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/order"
)

type stockedProduct struct {
	price float64
	stock int
}

type memStore struct {
	mu       sync.Mutex
	products map[string]*stockedProduct
	orders   []order.Order
	failWith error
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]*stockedProduct)}
}

func (s *memStore) PlaceOrder(_ context.Context, p Placement) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	product, ok := s.products[p.ProductID]
	if !ok {
		return nil, fmt.Errorf("place order: %w", core.ErrNotFound)
	}
	if product.stock <= 0 {
		return nil, ErrOutOfStock
	}

	status := p.Status
	if status == "" {
		status = order.StatusUnpaid
	}
	productID := p.ProductID
	o := order.Order{
		ID:               uuid.New().String(),
		UserID:           p.UserID,
		ProductID:        &productID,
		CustomerRealName: p.Form.CustomerRealName,
		MinecraftName:    p.Form.MinecraftName,
		CustomerPhone:    p.Form.CustomerPhone,
		CustomerEmail:    p.Form.CustomerEmail,
		PaymentMethod:    p.Form.PaymentMethod,
		TotalPrice:       product.price,
		Status:           status,
		CreatedAt:        time.Now(),
	}
	s.orders = append(s.orders, o)
	return &o, nil
}

func validForm() Form {
	return Form{
		CustomerRealName: "Jon Doe",
		MinecraftName:    "Jonny123",
		CustomerPhone:    "01712345678",
		CustomerEmail:    "jon@example.com",
		PaymentMethod:    "bkash",
	}
}

func TestFormValidateCollectsAllFields(t *testing.T) {
	fields := Form{
		CustomerRealName: " J ",
		MinecraftName:    "",
		CustomerPhone:    "12345",
		CustomerEmail:    "nope",
	}.Validate([]string{"bkash"})

	assert.Equal(t, map[string]string{
		"customerRealName": "Name must be at least 2 characters",
		"minecraftName":    "Minecraft name is required",
		"customerPhone":    "Valid phone number required",
		"customerEmail":    "Invalid email address",
		"paymentMethod":    "Payment method is required",
	}, fields)
}

func TestFormValidateRejectsUnknownPaymentMethod(t *testing.T) {
	f := validForm()
	f.PaymentMethod = "paypal"

	fields := f.Validate([]string{"bkash"})
	assert.Equal(t, "Unsupported payment method", fields["paymentMethod"])
	assert.Len(t, fields, 1)
}

func TestFormValidateTrims(t *testing.T) {
	f := validForm()
	f.CustomerPhone = "   0171234567   "
	assert.Empty(t, f.Validate([]string{"bkash"}))
}

func TestSubmitHappyPath(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &stockedProduct{price: 500, stock: 3}
	wf := NewWorkflow(store, []string{"bkash"}, "unpaid", nil)

	a := wf.Submit(context.Background(), "u1", "p1", validForm())

	require.Equal(t, StateSuccess, a.State())
	assert.Equal(t, []State{StateIdle, StateValidating, StateSubmitting, StateSuccess}, a.History())
	require.NotNil(t, a.Order)
	assert.Equal(t, 500.0, a.Order.TotalPrice)
	assert.Equal(t, order.StatusUnpaid, a.Order.Status)
	assert.Len(t, store.orders, 1)
}

func TestSubmitPriceIsCapturedAtSubmitTime(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &stockedProduct{price: 500, stock: 3}
	wf := NewWorkflow(store, []string{"bkash"}, "unpaid", nil)

	first := wf.Submit(context.Background(), "u1", "p1", validForm())
	store.products["p1"].price = 750

	require.Equal(t, StateSuccess, first.State())
	assert.Equal(t, 500.0, first.Order.TotalPrice)
	assert.Equal(t, 500.0, store.orders[0].TotalPrice)
}

func TestSubmitSoldOutWritesNothing(t *testing.T) {
	store := newMemStore()
	store.products["p2"] = &stockedProduct{price: 100, stock: 0}
	wf := NewWorkflow(store, []string{"bkash"}, "unpaid", nil)

	a := wf.Submit(context.Background(), "u1", "p2", validForm())

	assert.Equal(t, StateSubmitFailed, a.State())
	assert.ErrorIs(t, a.Err, ErrOutOfStock)
	assert.Empty(t, store.orders)
}

func TestSubmitInvalidNeverReachesStore(t *testing.T) {
	store := newMemStore()
	store.failWith = errors.New("store must not be called")
	wf := NewWorkflow(store, []string{"bkash"}, "unpaid", nil)

	a := wf.Submit(context.Background(), "u1", "p1", Form{})

	assert.Equal(t, StateValidationFailed, a.State())
	assert.Len(t, a.Fields, 5)
	assert.Nil(t, a.Err)
}

func TestSubmitFailureKeepsFormForRetry(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &stockedProduct{price: 500, stock: 1}
	store.failWith = errors.New("connection refused")
	wf := NewWorkflow(store, []string{"bkash"}, "", nil)

	form := validForm()
	a := wf.Submit(context.Background(), "u1", "p1", form)
	require.Equal(t, StateSubmitFailed, a.State())
	assert.Equal(t, form, a.Form)

	store.failWith = nil
	require.NoError(t, wf.Retry(context.Background(), a, "u1", "p1", a.Form))
	assert.Equal(t, StateSuccess, a.State())
}

func TestRetryRejectedAfterSuccess(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = &stockedProduct{price: 500, stock: 1}
	wf := NewWorkflow(store, []string{"bkash"}, "unpaid", nil)

	a := wf.Submit(context.Background(), "u1", "p1", validForm())
	require.Equal(t, StateSuccess, a.State())

	err := wf.Retry(context.Background(), a, "u1", "p1", validForm())
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Len(t, store.orders, 1)
}
