package services

import (
	"sort"
	"time"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// memoryStore is a single in-memory dataset shared by the fake repositories.
// The fake transactor snapshots it before each transaction and restores the
// snapshot on error, so atomicity is observable in tests.
type memoryStore struct {
	batches         map[int64]*models.Batch
	audits          []models.AuditEntry
	sales           map[int64]*models.Sale
	saleItems       []models.SaleItem
	transfers       []models.Transfer
	reservations    map[int64]*models.Reservation
	reconciliations map[int64]*models.Reconciliation
	reconItems      []models.ReconciliationItem
	products        map[int64]*models.Product
	stores          map[int64]*models.Store
	users           map[int64]*models.User
	nextID          int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		batches:         map[int64]*models.Batch{},
		sales:           map[int64]*models.Sale{},
		reservations:    map[int64]*models.Reservation{},
		reconciliations: map[int64]*models.Reconciliation{},
		products:        map[int64]*models.Product{},
		stores:          map[int64]*models.Store{},
		users:           map[int64]*models.User{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) snapshot() *memoryStore {
	cp := newMemoryStore()
	cp.nextID = m.nextID
	for k, v := range m.batches {
		b := *v
		cp.batches[k] = &b
	}
	for k, v := range m.sales {
		s := *v
		s.Items = append([]models.SaleItem(nil), v.Items...)
		cp.sales[k] = &s
	}
	for k, v := range m.reservations {
		r := *v
		cp.reservations[k] = &r
	}
	for k, v := range m.reconciliations {
		r := *v
		cp.reconciliations[k] = &r
	}
	for k, v := range m.products {
		p := *v
		cp.products[k] = &p
	}
	for k, v := range m.stores {
		s := *v
		cp.stores[k] = &s
	}
	for k, v := range m.users {
		u := *v
		cp.users[k] = &u
	}
	cp.audits = append([]models.AuditEntry(nil), m.audits...)
	cp.saleItems = append([]models.SaleItem(nil), m.saleItems...)
	cp.transfers = append([]models.Transfer(nil), m.transfers...)
	cp.reconItems = append([]models.ReconciliationItem(nil), m.reconItems...)
	return cp
}

func (m *memoryStore) restore(snap *memoryStore) {
	*m = *snap
}

// fakeTransactor runs the function directly, restoring the pre-transaction
// snapshot when it fails.
type fakeTransactor struct {
	store *memoryStore
}

func (t *fakeTransactor) WithinTx(fn func(executor repositories.SQLExecutor) error) error {
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// sortFEFO orders batches soonest expiry first, id as tiebreaker, matching
// the repository's ORDER BY contract.
func sortFEFO(batches []models.Batch) {
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ExpiryDate.Equal(batches[j].ExpiryDate) {
			return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
		}
		return batches[i].ID < batches[j].ID
	})
}

type fakeBatchRepo struct {
	store *memoryStore
}

func (r *fakeBatchRepo) CreateBatch(_ repositories.SQLExecutor, batch *models.Batch) (int64, error) {
	now := time.Now()
	batch.ID = r.store.id()
	if batch.ReceivedAt.IsZero() {
		batch.ReceivedAt = now
	}
	batch.CreatedAt = now
	batch.UpdatedAt = now
	b := *batch
	r.store.batches[batch.ID] = &b
	return batch.ID, nil
}

func (r *fakeBatchRepo) GetBatchByID(batchID int64) (*models.Batch, error) {
	batch, ok := r.store.batches[batchID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	b := *batch
	return &b, nil
}

func (r *fakeBatchRepo) GetBatchForUpdate(_ repositories.SQLExecutor, batchID int64) (*models.Batch, error) {
	return r.GetBatchByID(batchID)
}

func (r *fakeBatchRepo) FindByBatchNumberForUpdate(_ repositories.SQLExecutor, productID, storeID int64, batchNumber string) (*models.Batch, error) {
	var found *models.Batch
	for _, batch := range r.store.batches {
		if batch.ProductID == productID && batch.StoreID == storeID && batch.BatchNumber == batchNumber {
			if found == nil || batch.ID < found.ID {
				found = batch
			}
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	b := *found
	return &b, nil
}

func (r *fakeBatchRepo) UpdateQuantity(_ repositories.SQLExecutor, batchID int64, newQuantity int, updatedAt time.Time) error {
	batch, ok := r.store.batches[batchID]
	if !ok {
		return repositories.ErrNotFound
	}
	batch.Quantity = newQuantity
	batch.UpdatedAt = updatedAt
	return nil
}

func (r *fakeBatchRepo) AvailableBatches(productID, storeID int64) ([]models.Batch, error) {
	batches := []models.Batch{}
	for _, batch := range r.store.batches {
		if batch.ProductID == productID && batch.StoreID == storeID && batch.Quantity > 0 {
			batches = append(batches, *batch)
		}
	}
	sortFEFO(batches)
	return batches, nil
}

func (r *fakeBatchRepo) AvailableBatchesForUpdate(_ repositories.SQLExecutor, productID, storeID int64) ([]models.Batch, error) {
	return r.AvailableBatches(productID, storeID)
}

func (r *fakeBatchRepo) ExpiringBatchesForUpdate(_ repositories.SQLExecutor, storeID int64, cutoff time.Time) ([]models.Batch, error) {
	return r.ExpiringBatches(storeID, cutoff)
}

func (r *fakeBatchRepo) StoreInventory(storeID int64) ([]models.Batch, error) {
	batches := []models.Batch{}
	for _, batch := range r.store.batches {
		if batch.StoreID == storeID && batch.Quantity > 0 {
			batches = append(batches, *batch)
		}
	}
	sortFEFO(batches)
	return batches, nil
}

func (r *fakeBatchRepo) ExpiringBatches(storeID int64, cutoff time.Time) ([]models.Batch, error) {
	batches := []models.Batch{}
	for _, batch := range r.store.batches {
		if batch.StoreID == storeID && batch.Quantity > 0 && !batch.ExpiryDate.After(cutoff) {
			batches = append(batches, *batch)
		}
	}
	sortFEFO(batches)
	return batches, nil
}

func (r *fakeBatchRepo) LowStockBatches(storeID int64, threshold int) ([]models.Batch, error) {
	batches := []models.Batch{}
	for _, batch := range r.store.batches {
		if batch.StoreID == storeID && batch.Quantity > 0 && batch.Quantity < threshold {
			batches = append(batches, *batch)
		}
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Quantity < batches[j].Quantity })
	return batches, nil
}

func (r *fakeBatchRepo) ProductStock(productID, storeID int64) (int, error) {
	total := 0
	for _, batch := range r.store.batches {
		if batch.ProductID == productID && batch.StoreID == storeID && batch.Quantity > 0 {
			total += batch.Quantity
		}
	}
	return total, nil
}

type fakeAuditRepo struct {
	store *memoryStore
}

func (r *fakeAuditRepo) CreateEntry(_ repositories.SQLExecutor, entry *models.AuditEntry) (int64, error) {
	entry.ID = r.store.id()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.store.audits = append(r.store.audits, *entry)
	return entry.ID, nil
}

func (r *fakeAuditRepo) GetEntries(filters models.AuditFilters) ([]models.AuditEntry, int, error) {
	// Date bounds match the SQL filter: start inclusive, end exclusive at
	// the first instant of the following day.
	var start, end time.Time
	if filters.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *filters.StartDate)
		if err != nil {
			return nil, 0, err
		}
		start = parsed
	}
	if filters.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *filters.EndDate)
		if err != nil {
			return nil, 0, err
		}
		end = parsed.AddDate(0, 0, 1)
	}

	matched := []models.AuditEntry{}
	for _, entry := range r.store.audits {
		if filters.BatchID != nil && entry.BatchID != *filters.BatchID {
			continue
		}
		if filters.UserID != nil && entry.UserID != *filters.UserID {
			continue
		}
		if filters.ChangeType != nil && entry.ChangeType != *filters.ChangeType {
			continue
		}
		if filters.StartDate != nil && entry.CreatedAt.Before(start) {
			continue
		}
		if filters.EndDate != nil && !entry.CreatedAt.Before(end) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return matched, len(matched), nil
}

func (r *fakeAuditRepo) GetEntriesByBatchID(batchID int64) ([]models.AuditEntry, error) {
	entries := []models.AuditEntry{}
	for _, entry := range r.store.audits {
		if entry.BatchID == batchID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

type fakeSaleRepo struct {
	store *memoryStore
}

func (r *fakeSaleRepo) CreateSale(_ repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	for _, existing := range r.store.sales {
		if existing.ReceiptNumber == sale.ReceiptNumber || existing.IdempotencyKey == sale.IdempotencyKey {
			return 0, repositories.ErrDuplicateKey
		}
	}
	sale.ID = r.store.id()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	s := *sale
	s.Items = nil
	r.store.sales[sale.ID] = &s
	return sale.ID, nil
}

func (r *fakeSaleRepo) CreateSaleItem(_ repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	item.ID = r.store.id()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.store.saleItems = append(r.store.saleItems, *item)
	return item.ID, nil
}

func (r *fakeSaleRepo) GetSaleByID(saleID int64) (*models.Sale, error) {
	sale, ok := r.store.sales[saleID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	s := *sale
	for _, item := range r.store.saleItems {
		if item.SaleID == saleID {
			s.Items = append(s.Items, item)
		}
	}
	return &s, nil
}

func (r *fakeSaleRepo) GetSaleByIdempotencyKey(key string) (*models.Sale, error) {
	for _, sale := range r.store.sales {
		if sale.IdempotencyKey == key {
			return r.GetSaleByID(sale.ID)
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeSaleRepo) GetSalesByDate(storeID int64, date time.Time) ([]models.Sale, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	sales := []models.Sale{}
	for _, sale := range r.store.sales {
		if sale.StoreID == storeID && !sale.CreatedAt.Before(dayStart) && sale.CreatedAt.Before(dayEnd) {
			sales = append(sales, *sale)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID > sales[j].ID })
	return sales, nil
}

func (r *fakeSaleRepo) CountSalesByStore(_ repositories.SQLExecutor, storeID int64) (int, error) {
	count := 0
	for _, sale := range r.store.sales {
		if sale.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

type fakeTransferRepo struct {
	store *memoryStore
}

func (r *fakeTransferRepo) CreateTransfer(_ repositories.SQLExecutor, transfer *models.Transfer) (int64, error) {
	transfer.ID = r.store.id()
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}
	r.store.transfers = append(r.store.transfers, *transfer)
	return transfer.ID, nil
}

func (r *fakeTransferRepo) GetTransfersByReference(reference string) ([]models.Transfer, error) {
	transfers := []models.Transfer{}
	for _, transfer := range r.store.transfers {
		if transfer.Reference == reference {
			transfers = append(transfers, transfer)
		}
	}
	if len(transfers) == 0 {
		return nil, repositories.ErrNotFound
	}
	return transfers, nil
}

func (r *fakeTransferRepo) GetTransfersByStore(storeID int64, limit int) ([]models.Transfer, error) {
	transfers := []models.Transfer{}
	for _, transfer := range r.store.transfers {
		if transfer.FromStoreID == storeID || transfer.ToStoreID == storeID {
			transfers = append(transfers, transfer)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID > transfers[j].ID })
	if limit > 0 && len(transfers) > limit {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

type fakeReservationRepo struct {
	store *memoryStore
}

func (r *fakeReservationRepo) CreateReservation(_ repositories.SQLExecutor, reservation *models.Reservation) (int64, error) {
	now := time.Now()
	reservation.ID = r.store.id()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	res := *reservation
	r.store.reservations[reservation.ID] = &res
	return reservation.ID, nil
}

func (r *fakeReservationRepo) GetReservationByID(reservationID int64) (*models.Reservation, error) {
	reservation, ok := r.store.reservations[reservationID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	res := *reservation
	return &res, nil
}

func (r *fakeReservationRepo) GetReservationForUpdate(_ repositories.SQLExecutor, reservationID int64) (*models.Reservation, error) {
	return r.GetReservationByID(reservationID)
}

func (r *fakeReservationRepo) UpdateReservationStatus(_ repositories.SQLExecutor, reservationID int64, status string, updatedAt time.Time) error {
	reservation, ok := r.store.reservations[reservationID]
	if !ok {
		return repositories.ErrNotFound
	}
	reservation.Status = status
	reservation.UpdatedAt = updatedAt
	return nil
}

func (r *fakeReservationRepo) GetActiveReservationsByBatch(batchID int64) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	for _, reservation := range r.store.reservations {
		if reservation.BatchID == batchID && reservation.Status == models.ReservationStatusActive {
			reservations = append(reservations, *reservation)
		}
	}
	sort.Slice(reservations, func(i, j int) bool { return reservations[i].ID < reservations[j].ID })
	return reservations, nil
}

type fakeReconciliationRepo struct {
	store *memoryStore
}

func (r *fakeReconciliationRepo) CreateReconciliation(_ repositories.SQLExecutor, rec *models.Reconciliation) (int64, error) {
	rec.ID = r.store.id()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	cp := *rec
	r.store.reconciliations[rec.ID] = &cp
	return rec.ID, nil
}

func (r *fakeReconciliationRepo) GetReconciliationByID(reconciliationID int64) (*models.Reconciliation, error) {
	rec, ok := r.store.reconciliations[reconciliationID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeReconciliationRepo) GetReconciliationForUpdate(_ repositories.SQLExecutor, reconciliationID int64) (*models.Reconciliation, error) {
	return r.GetReconciliationByID(reconciliationID)
}

func (r *fakeReconciliationRepo) CompleteReconciliation(_ repositories.SQLExecutor, reconciliationID int64, completedAt time.Time) error {
	rec, ok := r.store.reconciliations[reconciliationID]
	if !ok {
		return repositories.ErrNotFound
	}
	rec.CompletedAt = &completedAt
	return nil
}

func (r *fakeReconciliationRepo) CreateItem(_ repositories.SQLExecutor, item *models.ReconciliationItem) (int64, error) {
	item.ID = r.store.id()
	r.store.reconItems = append(r.store.reconItems, *item)
	return item.ID, nil
}

func (r *fakeReconciliationRepo) GetItemsByReconciliationID(reconciliationID int64) ([]models.ReconciliationItem, error) {
	items := []models.ReconciliationItem{}
	for _, item := range r.store.reconItems {
		if item.ReconciliationID == reconciliationID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

type fakeCatalogRepo struct {
	store *memoryStore

	// storeLocks counts GetStoreForUpdate calls per store id.
	storeLocks map[int64]int
}

func (r *fakeCatalogRepo) CreateProduct(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	for _, existing := range r.store.products {
		if existing.SKU == product.SKU {
			return 0, repositories.ErrDuplicateKey
		}
	}
	product.ID = r.store.id()
	p := *product
	r.store.products[product.ID] = &p
	return product.ID, nil
}

func (r *fakeCatalogRepo) GetProductByID(productID int64) (*models.Product, error) {
	product, ok := r.store.products[productID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p := *product
	return &p, nil
}

func (r *fakeCatalogRepo) GetAllProducts(activeOnly bool) ([]models.Product, error) {
	products := []models.Product{}
	for _, product := range r.store.products {
		if activeOnly && !product.IsActive {
			continue
		}
		products = append(products, *product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *fakeCatalogRepo) UpdateProduct(_ repositories.SQLExecutor, product *models.Product) error {
	if _, ok := r.store.products[product.ID]; !ok {
		return repositories.ErrNotFound
	}
	p := *product
	r.store.products[product.ID] = &p
	return nil
}

func (r *fakeCatalogRepo) CreateStore(_ repositories.SQLExecutor, store *models.Store) (int64, error) {
	store.ID = r.store.id()
	s := *store
	r.store.stores[store.ID] = &s
	return store.ID, nil
}

func (r *fakeCatalogRepo) GetStoreByID(storeID int64) (*models.Store, error) {
	store, ok := r.store.stores[storeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	s := *store
	return &s, nil
}

func (r *fakeCatalogRepo) GetStoreForUpdate(_ repositories.SQLExecutor, storeID int64) (*models.Store, error) {
	if r.storeLocks == nil {
		r.storeLocks = map[int64]int{}
	}
	r.storeLocks[storeID]++
	return r.GetStoreByID(storeID)
}

func (r *fakeCatalogRepo) GetAllStores() ([]models.Store, error) {
	stores := []models.Store{}
	for _, store := range r.store.stores {
		stores = append(stores, *store)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

type fakeAuthRepo struct {
	store *memoryStore
}

func (r *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAuthRepo) GetUserByID(userID int64) (*models.User, error) {
	user, ok := r.store.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u := *user
	return &u, nil
}

// testEnv bundles a fully wired service stack over one memory store.
type testEnv struct {
	store          *memoryStore
	batchRepo      *fakeBatchRepo
	auditRepo      *fakeAuditRepo
	catalogRepo    *fakeCatalogRepo
	transactor     *fakeTransactor
	ledger         *LedgerService
	sales          *SaleService
	transfers      *TransferService
	reservations   *ReservationService
	reconciliation *ReconciliationService
	expiry         *ExpiryService
	catalog        *CatalogService
}

func newTestEnv() *testEnv {
	store := newMemoryStore()
	batchRepo := &fakeBatchRepo{store: store}
	auditRepo := &fakeAuditRepo{store: store}
	catalogRepo := &fakeCatalogRepo{store: store}
	transactor := &fakeTransactor{store: store}

	ledger := NewLedgerService(batchRepo, auditRepo, catalogRepo, transactor)

	return &testEnv{
		store:       store,
		batchRepo:   batchRepo,
		auditRepo:   auditRepo,
		catalogRepo: catalogRepo,
		transactor:  transactor,
		ledger:      ledger,
		sales: NewSaleService(&fakeSaleRepo{store: store}, batchRepo, catalogRepo, ledger, transactor),
		transfers: NewTransferService(&fakeTransferRepo{store: store}, batchRepo, catalogRepo,
			ledger, transactor),
		reservations: NewReservationService(&fakeReservationRepo{store: store}, ledger, transactor),
		reconciliation: NewReconciliationService(&fakeReconciliationRepo{store: store}, batchRepo,
			catalogRepo, ledger, transactor),
		expiry:  NewExpiryService(batchRepo, catalogRepo, ledger, transactor),
		catalog: NewCatalogService(catalogRepo, transactor),
	}
}

// seedCatalog inserts a product and two stores, returning their ids.
func (e *testEnv) seedCatalog() (productID, storeA, storeB int64) {
	product := &models.Product{Name: "Paracetamol 500mg", SKU: "PARA-500", NafdacNumber: "A4-1234", IsActive: true}
	product.ID = e.store.id()
	e.store.products[product.ID] = product

	a := &models.Store{Name: "Main Street", IsPrimary: true}
	a.ID = e.store.id()
	e.store.stores[a.ID] = a

	b := &models.Store{Name: "Annex"}
	b.ID = e.store.id()
	e.store.stores[b.ID] = b

	return product.ID, a.ID, b.ID
}

// seedBatch inserts a batch directly, bypassing the ledger.
func (e *testEnv) seedBatch(productID, storeID int64, batchNumber string, quantity int, expiry time.Time) *models.Batch {
	batch := &models.Batch{
		ProductID:   productID,
		StoreID:     storeID,
		BatchNumber: batchNumber,
		Quantity:    quantity,
		ExpiryDate:  expiry,
		ReceivedAt:  time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	batch.ID = e.store.id()
	e.store.batches[batch.ID] = batch
	return batch
}

func daysFromNow(days int) time.Time {
	return time.Now().AddDate(0, 0, days)
}
