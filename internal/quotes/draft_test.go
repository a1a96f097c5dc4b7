package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDraftStore(t *testing.T) (*DraftStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDraftStore(client, time.Hour), mr
}

func TestDraftCreateAndGet(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)
	assert.Empty(t, d.Items)

	loaded, err := store.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, loaded.ID)
}

func TestDraftGetUnknown(t *testing.T) {
	store, _ := newTestDraftStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftAddItemFreezesAmounts(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)

	updated, err := store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
		PartNo:          "VFD-220",
		Description:     "Variable frequency drive",
		Quantity:        2,
		UnitPrice:       dec(t, "100"),
		DiscountPercent: dec(t, "10"),
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	item := updated.Items[0]
	assert.True(t, item.DiscountAmount.Equal(dec(t, "20")), "discount: %s", item.DiscountAmount)
	assert.True(t, item.TotalPrice.Equal(dec(t, "180")), "total: %s", item.TotalPrice)

	// Amounts survive the round trip through Redis untouched.
	loaded, err := store.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Items[0].TotalPrice.Equal(item.TotalPrice))
}

func TestDraftAddItemValidation(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)

	_, err = store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
		PartNo: "X", Description: "x", Quantity: 0, UnitPrice: dec(t, "10"),
	})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
		PartNo: "X", Description: "x", Quantity: 1, UnitPrice: dec(t, "-1"),
	})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
		PartNo: "X", Description: "x", Quantity: 1,
		UnitPrice: dec(t, "10"), DiscountPercent: dec(t, "101"),
	})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestDraftRemoveItem(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)

	for _, part := range []string{"A", "B", "C"} {
		_, err = store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
			PartNo: part, Description: part, Quantity: 1, UnitPrice: dec(t, "10"),
		})
		require.NoError(t, err)
	}

	updated, err := store.RemoveItem(context.Background(), d.ID, 1)
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "A", updated.Items[0].PartNo)
	assert.Equal(t, "C", updated.Items[1].PartNo)

	_, err = store.RemoveItem(context.Background(), d.ID, 5)
	assert.ErrorIs(t, err, ErrItemIndex)
	_, err = store.RemoveItem(context.Background(), d.ID, -1)
	assert.ErrorIs(t, err, ErrItemIndex)
}

func TestDraftClearKeepsDraft(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)
	_, err = store.AddItem(context.Background(), d.ID, CreateLineItemRequest{
		PartNo: "A", Description: "a", Quantity: 1, UnitPrice: dec(t, "10"),
	})
	require.NoError(t, err)

	cleared, err := store.Clear(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)

	// Still addressable after clearing.
	_, err = store.Get(context.Background(), d.ID)
	assert.NoError(t, err)
}

func TestDraftDelete(t *testing.T) {
	store, _ := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), d.ID))
	_, err = store.Get(context.Background(), d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(context.Background(), d.ID))
}

func TestDraftExpires(t *testing.T) {
	store, mr := newTestDraftStore(t)

	d, err := store.Create(context.Background())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Get(context.Background(), d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}
