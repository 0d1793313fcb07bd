package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/catalog"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
)

func testProduct(id uint, price int64) *models.Product {
	return &models.Product{
		ID:       id,
		Slug:     "product",
		Name:     "Product",
		Price:    models.NewMoneyFromInt(price),
		IsActive: true,
	}
}

// checkAggregate 校验派生字段与行项一致
func checkAggregate(t *testing.T, store *Store) {
	t.Helper()
	snapshot := store.Snapshot()
	wantCount := 0
	wantTotal := models.ZeroMoney()
	for _, line := range snapshot.Lines {
		wantCount += line.Quantity
		wantTotal = wantTotal.AddMoney(line.UnitPrice.MulQuantity(line.Quantity))
	}
	if snapshot.ItemCount != wantCount {
		t.Fatalf("item count mismatch: got %d want %d", snapshot.ItemCount, wantCount)
	}
	if !snapshot.Total.Equal(wantTotal.Decimal) {
		t.Fatalf("total mismatch: got %s want %s", snapshot.Total.String(), wantTotal.String())
	}
}

func TestAddMergesDuplicateProduct(t *testing.T) {
	store := NewStore(storage.NewMemoryKV())

	store.Add(testProduct(1, 100), 2)
	store.Add(testProduct(1, 100), 3)
	store.Add(testProduct(1, 100), 1)

	snapshot := store.Snapshot()
	if len(snapshot.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snapshot.Lines))
	}
	if snapshot.Lines[0].Quantity != 6 {
		t.Fatalf("expected merged quantity 6, got %d", snapshot.Lines[0].Quantity)
	}
	checkAggregate(t, store)
}

func TestAggregateConsistencyAcrossMutations(t *testing.T) {
	store := NewStore(storage.NewMemoryKV())

	store.Add(testProduct(1, 100), 2)
	checkAggregate(t, store)
	store.Add(testProduct(2, 50), 1)
	checkAggregate(t, store)
	store.UpdateQuantity(1, 5)
	checkAggregate(t, store)
	store.Remove(2)
	checkAggregate(t, store)
	store.Add(testProduct(3, 25), 4)
	checkAggregate(t, store)
	store.Clear()
	checkAggregate(t, store)

	snapshot := store.Snapshot()
	if snapshot.ItemCount != 0 || !snapshot.Total.IsZero() {
		t.Fatalf("expected empty aggregate after clear, got %d/%s", snapshot.ItemCount, snapshot.Total.String())
	}
}

func TestUpdateQuantityZeroOrNegativeRemoves(t *testing.T) {
	for _, quantity := range []int{0, -5} {
		store := NewStore(storage.NewMemoryKV())
		store.Add(testProduct(1, 100), 2)

		store.UpdateQuantity(1, quantity)

		snapshot := store.Snapshot()
		if len(snapshot.Lines) != 0 {
			t.Fatalf("quantity %d: expected line removed, got %d lines", quantity, len(snapshot.Lines))
		}
		checkAggregate(t, store)
	}
}

func TestRemoveMissingProductIsNoop(t *testing.T) {
	store := NewStore(storage.NewMemoryKV())
	store.Add(testProduct(1, 100), 1)

	store.Remove(99)
	store.UpdateQuantity(99, 3)

	snapshot := store.Snapshot()
	if len(snapshot.Lines) != 1 || snapshot.Lines[0].ProductID != 1 {
		t.Fatalf("unexpected cart state: %+v", snapshot.Lines)
	}
}

func TestRemoveSyncedSubtractsSnapshotOnly(t *testing.T) {
	store := NewStore(storage.NewMemoryKV())
	store.Add(testProduct(1, 100), 2)
	store.Add(testProduct(2, 50), 1)

	synced := store.PersistedLines()

	// 快照之后的变更不受扣减影响
	store.Add(testProduct(1, 100), 1)
	store.Add(testProduct(3, 25), 4)

	store.RemoveSynced(synced)

	want := map[uint]int{1: 1, 3: 4}
	snapshot := store.Snapshot()
	if len(snapshot.Lines) != len(want) {
		t.Fatalf("expected %d lines after subtraction, got %+v", len(want), snapshot.Lines)
	}
	for _, line := range snapshot.Lines {
		if want[line.ProductID] != line.Quantity {
			t.Fatalf("unexpected quantity for product %d: %d", line.ProductID, line.Quantity)
		}
	}
	checkAggregate(t, store)

	// 扣完即空；空快照为无操作
	store.RemoveSynced(store.PersistedLines())
	if !store.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", store.Snapshot().Lines)
	}
	store.RemoveSynced(nil)
	checkAggregate(t, store)
}

func TestPersistRoundTrip(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := NewStore(kv)
	store.Add(testProduct(1, 100), 2)
	store.Add(testProduct(2, 50), 3)
	store.Add(testProduct(3, 25), 1)

	productCatalog := catalog.NewStatic(
		*testProduct(1, 100),
		*testProduct(2, 50),
		*testProduct(3, 25),
	)
	reloaded := NewStore(kv)
	if err := reloaded.Load(context.Background(), productCatalog); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := map[uint]int{1: 2, 2: 3, 3: 1}
	snapshot := reloaded.Snapshot()
	if len(snapshot.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(snapshot.Lines))
	}
	for _, line := range snapshot.Lines {
		if want[line.ProductID] != line.Quantity {
			t.Fatalf("unexpected quantity for product %d: %d", line.ProductID, line.Quantity)
		}
	}
	checkAggregate(t, reloaded)
}

func TestLoadDropsMissingCatalogEntry(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := NewStore(kv)
	store.Add(testProduct(1, 100), 2)
	store.Add(testProduct(2, 50), 1)

	// 商品 2 已从目录下架
	productCatalog := catalog.NewStatic(*testProduct(1, 100))
	reloaded := NewStore(kv)
	if err := reloaded.Load(context.Background(), productCatalog); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snapshot := reloaded.Snapshot()
	if len(snapshot.Lines) != 1 || snapshot.Lines[0].ProductID != 1 {
		t.Fatalf("expected only product 1 after reload, got %+v", snapshot.Lines)
	}
}

func TestLoadRefreshesPriceFromCatalog(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := NewStore(kv)
	store.Add(testProduct(1, 100), 2)

	// 目录价已调整，精简持久化形态不保留旧价
	productCatalog := catalog.NewStatic(*testProduct(1, 120))
	reloaded := NewStore(kv)
	if err := reloaded.Load(context.Background(), productCatalog); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snapshot := reloaded.Snapshot()
	if !snapshot.Lines[0].UnitPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected refreshed price 120, got %s", snapshot.Lines[0].UnitPrice.String())
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.FailPuts = true
	store := NewStore(kv)

	store.Add(testProduct(1, 100), 2)

	snapshot := store.Snapshot()
	if len(snapshot.Lines) != 1 || snapshot.Lines[0].Quantity != 2 {
		t.Fatalf("expected in-memory state to survive persist failure, got %+v", snapshot.Lines)
	}
}
