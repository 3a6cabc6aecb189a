package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/LW95x/marketplace-backend/internal/order/app"
	"github.com/LW95x/marketplace-backend/internal/order/domain"
	storage "github.com/LW95x/marketplace-backend/pkg/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Migrate(context.Background(), db))
	return db
}

func seedOrder(t *testing.T, db *sql.DB, orderID, buyerID string, date time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO orders(id, buyer_id, date, status, address, total_price)
		VALUES (?, ?, ?, 'PENDING', '1 Market Street', '35.00')`,
		orderID, buyerID, date.Unix())
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO order_items(id, order_id, product_id, quantity, unit_price, line_total)
		VALUES (?, ?, 'product-x', 2, '10.00', '20.00'),
		       (?, ?, 'product-y', 3, '5.00', '15.00')`,
		orderID+"-item-1", orderID, orderID+"-item-2", orderID)
	require.NoError(t, err)
}

func TestGetLoadsItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	seedOrder(t, db, "order-1", "buyer-1", time.Now().UTC())

	order, err := repo.Get(ctx, "buyer-1", "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
	require.Len(t, order.Items, 2)
	require.True(t, order.TotalPrice.Equal(order.Total()),
		"stored total %s, recomputed %s", order.TotalPrice, order.Total())
}

func TestGetScopedToBuyer(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	seedOrder(t, db, "order-1", "buyer-1", time.Now().UTC())

	_, err := repo.Get(ctx, "someone-else", "order-1")
	require.ErrorIs(t, err, app.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	base := time.Now().UTC().Truncate(time.Second)
	seedOrder(t, db, "order-old", "buyer-1", base.Add(-time.Hour))
	seedOrder(t, db, "order-new", "buyer-1", base)
	seedOrder(t, db, "order-other", "buyer-2", base)

	orders, err := repo.List(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "order-new", orders[0].ID)
	require.Equal(t, "order-old", orders[1].ID)
	require.Len(t, orders[0].Items, 2)
}

func TestUpdatePersistsStatusAndAddress(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	seedOrder(t, db, "order-1", "buyer-1", time.Now().UTC())

	order, err := repo.Get(ctx, "buyer-1", "order-1")
	require.NoError(t, err)

	order.Status = domain.StatusShipped
	order.Address = "2 Harbour Lane"
	_, err = repo.Update(ctx, order)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "buyer-1", "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusShipped, got.Status)
	require.Equal(t, "2 Harbour Lane", got.Address)
	require.Len(t, got.Items, 2)
}

func TestUpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	seedOrder(t, db, "order-1", "buyer-1", time.Now().UTC())

	first, err := repo.Get(ctx, "buyer-1", "order-1")
	require.NoError(t, err)
	stale := first

	first.Address = "2 Harbour Lane"
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	require.Equal(t, first.Version+1, updated.Version)

	// The snapshot taken before that write carries the old version; its
	// status patch must bounce rather than clobber the address.
	stale.Status = domain.StatusShipped
	_, err = repo.Update(ctx, stale)
	require.ErrorIs(t, err, app.ErrConcurrentModification)

	got, err := repo.Get(ctx, "buyer-1", "order-1")
	require.NoError(t, err)
	require.Equal(t, "2 Harbour Lane", got.Address)
	require.Equal(t, domain.StatusPending, got.Status)
}

func TestUpdateUnknownOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(newTestDB(t))

	_, err := repo.Update(ctx, domain.Order{ID: "ghost", Status: domain.StatusShipped})
	require.ErrorIs(t, err, app.ErrNotFound)
}

func TestDeleteRemovesOrderAndItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepo(db)

	seedOrder(t, db, "order-1", "buyer-1", time.Now().UTC())

	require.NoError(t, repo.Delete(ctx, "order-1"))

	_, err := repo.Get(ctx, "buyer-1", "order-1")
	require.ErrorIs(t, err, app.ErrNotFound)

	var left int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id = ?`, "order-1").Scan(&left))
	require.Zero(t, left)
}

func TestDeleteUnknownOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(newTestDB(t))

	require.ErrorIs(t, repo.Delete(ctx, "ghost"), app.ErrNotFound)
}
