package businessflow

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/amirphl/inventory-asn/config"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected store failure")

type memTxKey struct{}

// memStore is an in-memory stand-in for the three tables.
// mu is held for the whole of a transaction, which models the cursor row lock.
type memStore struct {
	mu       sync.Mutex
	cursors  map[string]*models.ASNCursor
	records  []*models.DownloadInventory
	captures []*models.InventoryCapture
	nextID   uint

	saveBatchCalls     int
	failSaveBatchAt    int
	failCursorUpdate   bool
	failMarkDownloaded bool
	failUpdateStatus   bool
	commits            int
	rollbacks          int
}

type memSnapshot struct {
	cursors  map[string]models.ASNCursor
	records  []models.DownloadInventory
	captures []models.InventoryCapture
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{cursors: make(map[string]*models.ASNCursor)}
}

func inTx(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) != nil
}

// do runs fn under the store lock unless ctx already owns it through a transaction
func (s *memStore) do(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{cursors: make(map[string]models.ASNCursor), nextID: s.nextID}
	for k, c := range s.cursors {
		snap.cursors[k] = *c
	}
	for _, r := range s.records {
		snap.records = append(snap.records, *r)
	}
	for _, c := range s.captures {
		snap.captures = append(snap.captures, *c)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.cursors = make(map[string]*models.ASNCursor)
	for k, c := range snap.cursors {
		s.cursors[k] = &c
	}
	s.records = nil
	for _, r := range snap.records {
		s.records = append(s.records, &r)
	}
	s.captures = nil
	for _, c := range snap.captures {
		s.captures = append(s.captures, &c)
	}
	s.nextID = snap.nextID
}

// allRecords returns copies of the placed records in bucket and line order
func (s *memStore) allRecords() []models.DownloadInventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DownloadInventory, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	slices.SortFunc(out, compareRecords)
	return out
}

func (s *memStore) cursor(cursorType string) *models.ASNCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[cursorType]
	if !ok {
		return nil
	}
	out := *c
	return &out
}

func (s *memStore) capture(id uint) models.InventoryCapture {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.captures {
		if c.ID == id {
			return *c
		}
	}
	return models.InventoryCapture{}
}

func compareRecords(a, b models.DownloadInventory) int {
	return cmp.Or(cmp.Compare(a.ASNNumber, b.ASNNumber), cmp.Compare(a.LineNumber, b.LineNumber))
}

type memTxManager struct {
	s *memStore
}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	snap := m.s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.s.restore(snap)
		m.s.rollbacks++
		return err
	}
	m.s.commits++
	return nil
}

type memCursorRepo struct {
	s *memStore
}

func (r *memCursorRepo) ByType(ctx context.Context, cursorType string) (out *models.ASNCursor, err error) {
	err = r.s.do(ctx, func() error {
		if c, ok := r.s.cursors[cursorType]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *memCursorRepo) ByTypeForUpdate(ctx context.Context, cursorType string) (*models.ASNCursor, error) {
	return r.ByType(ctx, cursorType)
}

func (r *memCursorRepo) CreateIfAbsent(ctx context.Context, cursor *models.ASNCursor) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.cursors[cursor.Type]; ok {
			return nil
		}
		cursor.ID = r.s.id()
		cp := *cursor
		r.s.cursors[cursor.Type] = &cp
		return nil
	})
}

func (r *memCursorRepo) Update(ctx context.Context, cursor *models.ASNCursor) error {
	return r.s.do(ctx, func() error {
		if r.s.failCursorUpdate {
			return errInjected
		}
		for _, c := range r.s.cursors {
			if c.ID == cursor.ID {
				c.Prefix = cursor.Prefix
				c.CurrentNumber = cursor.CurrentNumber
				c.NextNumber = cursor.NextNumber
				c.UpdatedUsername = cursor.UpdatedUsername
				c.UpdatedAt = cursor.UpdatedAt
				return nil
			}
		}
		return errors.New("cursor not found")
	})
}

type memRecordRepo struct {
	s *memStore
}

func matchRecord(r *models.DownloadInventory, f models.DownloadInventoryFilter) bool {
	switch {
	case f.ID != nil && r.ID != *f.ID,
		f.Owner != nil && r.Owner != *f.Owner,
		f.ASNNumber != nil && r.ASNNumber != *f.ASNNumber,
		f.DownloadStatus != nil && r.DownloadStatus != *f.DownloadStatus,
		f.Status != nil && r.Status != *f.Status:
		return false
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *memRecordRepo) ByID(ctx context.Context, id uint) (out *models.DownloadInventory, err error) {
	err = r.s.do(ctx, func() error {
		for _, rec := range r.s.records {
			if rec.ID == id {
				cp := *rec
				out = &cp
			}
		}
		return nil
	})
	return out, err
}

func (r *memRecordRepo) ByFilter(ctx context.Context, filter models.DownloadInventoryFilter, _ string, limit, offset int) (out []*models.DownloadInventory, err error) {
	err = r.s.do(ctx, func() error {
		var matched []models.DownloadInventory
		for _, rec := range r.s.records {
			if matchRecord(rec, filter) {
				matched = append(matched, *rec)
			}
		}
		slices.SortFunc(matched, compareRecords)
		for _, rec := range paginate(matched, limit, offset) {
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

func (r *memRecordRepo) Save(ctx context.Context, entity *models.DownloadInventory) error {
	return r.SaveBatch(ctx, []*models.DownloadInventory{entity})
}

func (r *memRecordRepo) SaveBatch(ctx context.Context, entities []*models.DownloadInventory) error {
	return r.s.do(ctx, func() error {
		r.s.saveBatchCalls++
		if r.s.failSaveBatchAt > 0 && r.s.saveBatchCalls == r.s.failSaveBatchAt {
			return errInjected
		}
		for _, e := range entities {
			for _, existing := range r.s.records {
				if existing.ASNNumber == e.ASNNumber && existing.LineNumber == e.LineNumber {
					return errors.New("duplicate key value violates unique constraint uk_download_inventories_asn_line")
				}
			}
			e.ID = r.s.id()
			cp := *e
			r.s.records = append(r.s.records, &cp)
		}
		return nil
	})
}

func (r *memRecordRepo) Count(ctx context.Context, filter models.DownloadInventoryFilter) (n int64, err error) {
	err = r.s.do(ctx, func() error {
		for _, rec := range r.s.records {
			if matchRecord(rec, filter) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memRecordRepo) Exists(ctx context.Context, filter models.DownloadInventoryFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *memRecordRepo) LastLineInBucket(ctx context.Context, asnNumber string) (out *models.DownloadInventory, err error) {
	err = r.s.do(ctx, func() error {
		for _, rec := range r.s.records {
			if rec.ASNNumber == asnNumber && (out == nil || rec.LineNumber > out.LineNumber) {
				cp := *rec
				out = &cp
			}
		}
		return nil
	})
	return out, err
}

func (r *memRecordRepo) ListByASN(ctx context.Context, asnNumber string) ([]*models.DownloadInventory, error) {
	return r.ByFilter(ctx, models.DownloadInventoryFilter{ASNNumber: &asnNumber}, "", 0, 0)
}

func (r *memRecordRepo) ListNotDownloadedForUpdate(ctx context.Context) ([]*models.DownloadInventory, error) {
	status := models.DownloadStatusNo
	return r.ByFilter(ctx, models.DownloadInventoryFilter{DownloadStatus: &status}, "", 0, 0)
}

func (r *memRecordRepo) MarkDownloaded(ctx context.Context, ids []uint, username string) error {
	return r.s.do(ctx, func() error {
		if r.s.failMarkDownloaded {
			return errInjected
		}
		for _, rec := range r.s.records {
			if slices.Contains(ids, rec.ID) {
				rec.DownloadStatus = models.DownloadStatusYes
				rec.UpdatedUsername = utils.ToPtr(username)
			}
		}
		return nil
	})
}

type memCaptureRepo struct {
	s *memStore
}

func matchCapture(c *models.InventoryCapture, f models.InventoryCaptureFilter) bool {
	switch {
	case f.ID != nil && c.ID != *f.ID,
		f.Owner != nil && c.Owner != *f.Owner,
		f.Status != nil && c.Status != *f.Status,
		f.Username != nil && c.Username != *f.Username:
		return false
	}
	return true
}

func (r *memCaptureRepo) ByID(ctx context.Context, id uint) (out *models.InventoryCapture, err error) {
	err = r.s.do(ctx, func() error {
		for _, c := range r.s.captures {
			if c.ID == id {
				cp := *c
				out = &cp
			}
		}
		return nil
	})
	return out, err
}

// ByFilter returns newest first, like the store default
func (r *memCaptureRepo) ByFilter(ctx context.Context, filter models.InventoryCaptureFilter, _ string, limit, offset int) (out []*models.InventoryCapture, err error) {
	err = r.s.do(ctx, func() error {
		var matched []models.InventoryCapture
		for _, c := range r.s.captures {
			if matchCapture(c, filter) {
				matched = append(matched, *c)
			}
		}
		slices.SortFunc(matched, func(a, b models.InventoryCapture) int { return cmp.Compare(b.ID, a.ID) })
		for _, c := range paginate(matched, limit, offset) {
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *memCaptureRepo) Save(ctx context.Context, entity *models.InventoryCapture) error {
	return r.SaveBatch(ctx, []*models.InventoryCapture{entity})
}

func (r *memCaptureRepo) SaveBatch(ctx context.Context, entities []*models.InventoryCapture) error {
	return r.s.do(ctx, func() error {
		for _, e := range entities {
			e.ID = r.s.id()
			cp := *e
			r.s.captures = append(r.s.captures, &cp)
		}
		return nil
	})
}

func (r *memCaptureRepo) Count(ctx context.Context, filter models.InventoryCaptureFilter) (n int64, err error) {
	err = r.s.do(ctx, func() error {
		for _, c := range r.s.captures {
			if matchCapture(c, filter) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memCaptureRepo) Exists(ctx context.Context, filter models.InventoryCaptureFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *memCaptureRepo) ListByStatusForUpdate(ctx context.Context, status int) (out []*models.InventoryCapture, err error) {
	err = r.s.do(ctx, func() error {
		for _, c := range r.s.captures {
			if c.Status == status {
				cp := *c
				out = append(out, &cp)
			}
		}
		slices.SortFunc(out, func(a, b *models.InventoryCapture) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return out, err
}

func (r *memCaptureRepo) UpdateStatus(ctx context.Context, ids []uint, status int) error {
	return r.s.do(ctx, func() error {
		if r.s.failUpdateStatus {
			return errInjected
		}
		for _, c := range r.s.captures {
			if slices.Contains(ids, c.ID) {
				c.Status = status
			}
		}
		return nil
	})
}

// memBatchGuard records reservations in a map
type memBatchGuard struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
	err      error
}

func newMemBatchGuard() *memBatchGuard {
	return &memBatchGuard{keys: make(map[string]bool)}
}

func (g *memBatchGuard) Reserve(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memBatchGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	g.released = append(g.released, key)
	return nil
}

// testEnv wires the flows against one memStore
type testEnv struct {
	store      *memStore
	cfg        config.ASNConfig
	cursors    *SequenceCursorManager
	allocator  *BucketAllocator
	asnFlow    ASNFlow
	exportFlow ASNExportFlow
	captures   InventoryCaptureFlow
	txManager  *memTxManager
	recordRepo *memRecordRepo
	capRepo    *memCaptureRepo
}

func newTestEnv(t *testing.T, capacity int) *testEnv {
	t.Helper()

	store := newMemStore()
	cfg := config.ASNConfig{
		Type:                models.ASNCursorTypeASN,
		Prefix:              models.DefaultASNPrefix,
		NumberOfLines:       capacity,
		EndingNumber:        models.MaxASNNumber,
		ExportSheetTimeZone: "America/New_York",
	}

	txManager := &memTxManager{s: store}
	recordRepo := &memRecordRepo{s: store}
	capRepo := &memCaptureRepo{s: store}
	cursors := NewSequenceCursorManager(&memCursorRepo{s: store}, cfg)
	allocator := NewBucketAllocator(cursors, recordRepo, txManager, cfg.Type)

	return &testEnv{
		store:      store,
		cfg:        cfg,
		cursors:    cursors,
		allocator:  allocator,
		asnFlow:    NewASNFlow(allocator, cursors, recordRepo, cfg.Type),
		exportFlow: NewASNExportFlow(cursors, recordRepo, txManager, cfg.Type, cfg.ExportSheetTimeZone),
		captures:   NewInventoryCaptureFlow(capRepo),
		txManager:  txManager,
		recordRepo: recordRepo,
		capRepo:    capRepo,
	}
}

func (e *testEnv) generationFlow(guard BatchGuard) ASNGenerationFlow {
	return NewASNGenerationFlow(e.allocator, e.capRepo, e.txManager, guard)
}

// seedCursor stores a cursor under prefix pointing at bucket current
func (e *testEnv) seedCursor(t *testing.T, prefix string, current int64, capacity int, ending string) {
	t.Helper()
	bucket := models.NewASNNumber(prefix, current)
	err := (&memCursorRepo{s: e.store}).CreateIfAbsent(context.Background(), &models.ASNCursor{
		Type:           e.cfg.Type,
		Prefix:         prefix,
		StartingNumber: models.NewASNNumber(prefix, 1).String(),
		EndingNumber:   ending,
		CurrentNumber:  bucket.String(),
		NextNumber:     bucket.Next().String(),
		NumberOfLines:  capacity,
	})
	require.NoError(t, err)
}

func (e *testEnv) allocate(t *testing.T, owner string, count int) *AllocationResult {
	t.Helper()
	result, err := e.allocator.Allocate(context.Background(), &AllocationRequest{
		Owner:       owner,
		Location:    "LOC-1",
		Case:        "CASE-1",
		SKU:         "SKU-1",
		UOM:         "EA",
		Quantity:    1,
		RecordCount: count,
		Status:      models.InventoryStatusPending,
		Username:    "tester",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) addCapture(t *testing.T, owner string, status int) uint {
	t.Helper()
	c := &models.InventoryCapture{
		Owner:    owner,
		Location: "LOC-1",
		SKU:      "SKU-" + owner,
		UOM:      "EA",
		Quantity: 2,
		Username: "tester",
		Status:   status,
	}
	require.NoError(t, e.capRepo.Save(context.Background(), c))
	return c.ID
}

type placement struct {
	ASN   string
	Line  string
	Owner string
}

func placements(records []models.DownloadInventory) []placement {
	out := make([]placement, 0, len(records))
	for _, r := range records {
		out = append(out, placement{ASN: r.ASNNumber, Line: r.LineNumber, Owner: r.Owner})
	}
	return out
}
