package application

import (
	"context"
	"sync"
	"testing"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// memStockRepo is an in-memory StockRepository with real compare-and-set
// semantics, so the ledger's retry loop is exercised the same way the GORM
// adapter would.
type memStockRepo struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]domain.StockRecord
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{nextID: 1, records: make(map[uint64]domain.StockRecord)}
}

func (r *memStockRepo) Create(_ context.Context, record *domain.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = r.nextID
	r.nextID++
	r.records[record.ID] = *record
	return nil
}

func (r *memStockRepo) FindByID(_ context.Context, id uint64) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := record
	return &copied, nil
}

func (r *memStockRepo) FindByProduct(_ context.Context, productID, variantID string) ([]domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StockRecord
	for id := uint64(1); id < r.nextID; id++ {
		record, ok := r.records[id]
		if ok && record.ProductID == productID && record.VariantID == variantID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memStockRepo) UpdateWithVersion(_ context.Context, record *domain.StockRecord, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[record.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.records[record.ID] = *record
	return nil
}

func (r *memStockRepo) get(id uint64) domain.StockRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

func seedRecord(t *testing.T, repo *memStockRepo, productID, variantID, location string, onHand int) uint64 {
	t.Helper()
	record := &domain.StockRecord{
		ProductID: productID,
		VariantID: variantID,
		Location:  location,
		OnHand:    onHand,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	return record.ID
}

func newTestLedger(repo domain.StockRepository) *StockLedger {
	return NewStockLedger(repo, noop.NewTracerProvider().Tracer("test"), nil)
}

func TestLedgerReserveAndRelease(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 10)
	ledger := newTestLedger(repo)
	ctx := context.Background()

	record, err := ledger.Reserve(ctx, id, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, record.Reserved)
	assert.Equal(t, 10, record.OnHand)
	assert.Equal(t, 4, repo.get(id).Reserved, "mutation must be persisted")

	record, err = ledger.Release(ctx, id, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Reserved)
	assert.Equal(t, 10, record.OnHand)
}

func TestLedgerReserveInsufficient(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 3)
	ledger := newTestLedger(repo)

	_, err := ledger.Reserve(context.Background(), id, 5)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 0, repo.get(id).Reserved)
}

func TestLedgerDeductAndRestore(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 10)
	ledger := newTestLedger(repo)
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, id, 6)
	require.NoError(t, err)

	record, err := ledger.Deduct(ctx, id, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, record.OnHand)
	assert.Equal(t, 0, record.Reserved)

	record, err = ledger.Restore(ctx, id, 6)
	require.NoError(t, err)
	assert.Equal(t, 10, record.OnHand)
	assert.Equal(t, 0, record.Reserved)
}

func TestLedgerRecordNotFound(t *testing.T) {
	ledger := newTestLedger(newMemStockRepo())
	_, err := ledger.Reserve(context.Background(), 42, 1)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestLedgerGetAvailable(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "east", 5)
	seedRecord(t, repo, "p-1", "", "west", 7)
	seedRecord(t, repo, "p-2", "", "east", 100)
	ledger := newTestLedger(repo)
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, a, 2)
	require.NoError(t, err)

	total, err := ledger.GetAvailable(ctx, "p-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, 10, total, "sums available across locations")

	east, err := ledger.GetAvailable(ctx, "p-1", "", "east")
	require.NoError(t, err)
	assert.Equal(t, 3, east)
}

func TestLedgerAdjustOnHand(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 10)
	ledger := newTestLedger(repo)
	ctx := context.Background()

	record, err := ledger.AdjustOnHand(ctx, id, 25)
	require.NoError(t, err)
	assert.Equal(t, 35, record.OnHand)

	_, err = ledger.Reserve(ctx, id, 30)
	require.NoError(t, err)

	_, err = ledger.AdjustOnHand(ctx, id, -10)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient, "shrinking below reserved must fail")
}

// Two goroutines race to reserve the last unit; exactly one may win.
func TestLedgerConcurrentReserveLastUnit(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 1)
	ledger := newTestLedger(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Reserve(context.Background(), id, 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			var insufficient *domain.InsufficientStockError
			assert.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 1, winners, "exactly one reservation may succeed")

	final := repo.get(id)
	assert.Equal(t, 1, final.OnHand)
	assert.Equal(t, 1, final.Reserved)
}

func TestLedgerRetriesOnVersionConflict(t *testing.T) {
	repo := newMemStockRepo()
	id := seedRecord(t, repo, "p-1", "", "main", 10)
	conflicting := &conflictOnceRepo{memStockRepo: repo}
	ledger := NewStockLedger(conflicting, noop.NewTracerProvider().Tracer("test"), nil)

	record, err := ledger.Reserve(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Reserved)
	assert.Equal(t, 2, conflicting.calls, "first attempt conflicts, second lands")
}

// conflictOnceRepo fails the first versioned update to exercise the retry path.
type conflictOnceRepo struct {
	*memStockRepo
	calls int
}

func (r *conflictOnceRepo) UpdateWithVersion(ctx context.Context, record *domain.StockRecord, expectedVersion int64) error {
	r.calls++
	if r.calls == 1 {
		return domain.ErrVersionConflict
	}
	return r.memStockRepo.UpdateWithVersion(ctx, record, expectedVersion)
}
