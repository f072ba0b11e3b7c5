package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
)

func orderInput(method string, items ...any) OrderInput {
	var in OrderInput
	in.PaymentMethod = method
	in.ShippingAddress = "12 Main Road"
	for i := 0; i+1 < len(items); i += 2 {
		in.Items = append(in.Items, OrderLine{GoodieID: items[i].(string), Quantity: items[i+1].(int)})
	}
	return in
}

func TestPlace_MergesDuplicateItems(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := NewOrderService(repo, quietLogger())

	order, err := svc.Place(context.Background(), "user-1", orderInput("Cash", "g1", 1, "g2", 2, "g1", 3))
	require.NoError(t, err)

	assert.Equal(t, []model.OrderItem{{GoodieID: "g1", Quantity: 4}, {GoodieID: "g2", Quantity: 2}}, order.Items)
	assert.Equal(t, model.PaymentCash, order.PaymentMethod)
	assert.Equal(t, model.OrderPending, order.Status)
	_, err = uuid.Parse(order.OrderID)
	assert.NoError(t, err, "orderId must be a uuid")
}

func TestPlace_Rejects(t *testing.T) {
	svc := NewOrderService(&fakeOrderRepo{}, quietLogger())

	tests := []struct {
		name string
		in   OrderInput
	}{
		{"unknown payment", orderInput("card", "g1", 1)},
		{"no items", orderInput("cash")},
		{"zero quantity", orderInput("cash", "g1", 0)},
		{"too many", orderInput("coins", "g1", 6, "g1", 5)},
		{"blank goodie", orderInput("cash", " ", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Place(context.Background(), "user-1", tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	noAddress := orderInput("cash", "g1", 1)
	noAddress.ShippingAddress = "  "
	_, err := svc.Place(context.Background(), "user-1", noAddress)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPlace_PropagatesStockConflict(t *testing.T) {
	repo := &fakeOrderRepo{err: apperror.ConflictMessage("insufficient stock for Mug")}
	svc := NewOrderService(repo, quietLogger())

	_, err := svc.Place(context.Background(), "user-1", orderInput("cash", "g1", 1))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSetStatus(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := NewOrderService(repo, quietLogger())
	ctx := context.Background()
	order, _ := svc.Place(ctx, "user-1", orderInput("cash", "g1", 1))

	updated, err := svc.SetStatus(ctx, order.OrderID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, updated.Status)
	assert.Equal(t, model.OrderShipped, repo.placed[0].Status)

	_, err = svc.SetStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	mine, _ := svc.Mine(ctx, "user-1")
	assert.Len(t, mine, 1)
}

func TestSetStatus_FinalStatesAreLocked(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := NewOrderService(repo, quietLogger())
	ctx := context.Background()

	for _, final := range []string{model.OrderDelivered, model.OrderCancelled} {
		order, err := svc.Place(ctx, "user-1", orderInput("cash", "g1", 1))
		require.NoError(t, err)

		_, err = svc.SetStatus(ctx, order.ID, final)
		require.NoError(t, err)

		_, err = svc.SetStatus(ctx, order.ID, model.OrderPending)
		assert.ErrorIs(t, err, apperror.ErrConflict, "leaving %s", final)

		again, err := svc.SetStatus(ctx, order.ID, final)
		require.NoError(t, err, "repeating %s", final)
		assert.Equal(t, final, again.Status)
	}
	assert.Equal(t, 2, repo.statusCalls)
}
