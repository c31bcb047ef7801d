package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"dukkan/backend/internal/cache"
	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/idseq"
	"dukkan/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	ids       *idseq.Generator
	reports   cache.ReportCache
	reportTTL time.Duration
}

func New(repo store.Repository, ids *idseq.Generator, reports cache.ReportCache, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 6 * time.Hour
	}

	return &Service{
		repo:      repo,
		ids:       ids,
		reports:   reports,
		reportTTL: reportTTL,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, store.ErrInvalidRecord
	}
	product, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

// LowStockProducts lists products at or below the restock threshold, most
// depleted first.
func (s *Service) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Stock <= domain.LowStockThreshold {
			low = append(low, p)
		}
	}
	sort.Slice(low, func(i, j int) bool {
		if low[i].Stock == low[j].Stock {
			return low[i].Name < low[j].Name
		}
		return low[i].Stock < low[j].Stock
	})
	return low, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Name == "" || req.PriceCents < 0 || req.CostCents < 0 || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidRecord
	}

	product := domain.Product{
		ID:         s.ids.Next(),
		Name:       req.Name,
		Category:   req.Category,
		Barcode:    req.Barcode,
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Stock:      req.Stock,
	}
	if product.Barcode == "" {
		product.Barcode = barcodeFor(product.ID)
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	if product.Category != "" {
		if err := s.repo.AddCategory(ctx, product.Category); err != nil && !isDuplicateCategory(err) {
			log.Printf("[service] WARN: failed to register category %q: %v", product.Category, err)
		}
	}

	log.Printf("[service] product created id=%d name=%s", created.ID, created.Name)
	return *created, nil
}

func isDuplicateCategory(err error) bool {
	// AddCategory reports an existing label as an invalid record; creation
	// treats that as a no-op.
	return errors.Is(err, store.ErrInvalidRecord)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if id < 1 {
		return domain.Product{}, store.ErrInvalidRecord
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidRecord
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return domain.Product{}, store.ErrInvalidRecord
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return domain.Product{}, store.ErrInvalidRecord
		}
		updated.CostCents = *req.CostCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidRecord
		}
		updated.Stock = *req.Stock
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if id < 1 {
		return store.ErrInvalidRecord
	}
	return s.repo.DeleteProduct(ctx, id)
}

// barcodeFor derives the printed barcode for a product that was created
// without one: "P" followed by the id, zero-padded to six digits.
func barcodeFor(id int64) string {
	return fmt.Sprintf("P%06d", id)
}

// RecordSale validates and persists a sale. Items referencing unknown
// products are dropped with a warning; prices and costs are snapshotted from
// the live catalog at the moment of sale so later edits never rewrite
// history. A debt sale requires a customer name and raises that customer's
// balance by the invoice total.
func (s *Service) RecordSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	if len(draft.Items) == 0 {
		return domain.Sale{}, store.ErrInvalidRecord
	}

	paymentType := strings.ToLower(strings.TrimSpace(draft.PaymentType))
	if paymentType == "" {
		paymentType = domain.PaymentTypeCash
	}
	if paymentType != domain.PaymentTypeCash && paymentType != domain.PaymentTypeDebt {
		return domain.Sale{}, store.ErrInvalidRecord
	}

	customerName := strings.TrimSpace(draft.CustomerName)
	if paymentType == domain.PaymentTypeDebt && customerName == "" {
		return domain.Sale{}, fmt.Errorf("customer name required for debt sale: %w", store.ErrInvalidRecord)
	}
	if customerName == "" {
		customerName = domain.WalkInCustomer
	}

	items := make([]domain.SaleItem, 0, len(draft.Items))
	total := int64(0)
	for _, line := range mergeDraftItems(draft.Items) {
		if line.Qty < 1 {
			return domain.Sale{}, store.ErrInvalidRecord
		}
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("[service] WARN: sale references unknown product id=%d, skipping", line.ProductID)
				continue
			}
			return domain.Sale{}, err
		}
		price := product.PriceCents
		if line.PriceCents > 0 {
			price = line.PriceCents
		}
		items = append(items, domain.SaleItem{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceCents: price,
			CostCents:  product.CostCents,
			Qty:        line.Qty,
		})
		total += int64(line.Qty) * price
	}
	if len(items) == 0 {
		return domain.Sale{}, store.ErrInvalidRecord
	}

	cashier := ""
	if actor, ok := ActorFromContext(ctx); ok {
		cashier = actor.Username
	}

	sale := domain.Sale{
		ID:           s.ids.Next(),
		Date:         time.Now().UTC(),
		CustomerName: customerName,
		PaymentType:  paymentType,
		Items:        items,
		TotalCents:   total,
		Cashier:      cashier,
	}

	saved, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	log.Printf("[service] sale recorded id=%d total=%d payment=%s", saved.ID, saved.TotalCents, saved.PaymentType)
	return *saved, nil
}

// mergeDraftItems collapses duplicate product lines, summing quantities. The
// first explicit price override for a product wins.
func mergeDraftItems(lines []domain.SaleDraftItem) []domain.SaleDraftItem {
	merged := make([]domain.SaleDraftItem, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// ReturnSale restocks the returned quantities and, for debt sales, reduces
// the customer balance by the refunded amount. Each item tracks how much has
// already been returned; a request that would push any item past its sold
// quantity is rejected whole.
func (s *Service) ReturnSale(ctx context.Context, saleID int64, req domain.SaleReturnRequest) (domain.Sale, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Sale{}, err
	}
	if saleID < 1 || len(req.Lines) == 0 {
		return domain.Sale{}, store.ErrInvalidRecord
	}

	updated, err := s.repo.ApplyReturn(ctx, saleID, req.Lines)
	if err != nil {
		return domain.Sale{}, err
	}

	log.Printf("[service] return applied sale=%d full=%t", updated.ID, updated.Returned)
	return *updated, nil
}

// ReturnSaleAll returns every remaining item on the sale, the one-tap "full
// return" the register offers.
func (s *Service) ReturnSaleAll(ctx context.Context, saleID int64) (domain.Sale, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}

	lines := make([]domain.ReturnLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		remaining := item.Qty - item.ReturnedQty
		if remaining > 0 {
			lines = append(lines, domain.ReturnLine{ProductID: item.ProductID, Qty: remaining})
		}
	}
	if len(lines) == 0 {
		return domain.Sale{}, fmt.Errorf("sale already fully returned: %w", store.ErrInvalidRecord)
	}
	return s.ReturnSale(ctx, saleID, domain.SaleReturnRequest{Lines: lines})
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	if id < 1 {
		return domain.Sale{}, store.ErrInvalidRecord
	}
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, date string, limit int) ([]domain.Sale, error) {
	from, to, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 200
	}
	return s.repo.ListSales(ctx, from, to, limit)
}

// RecordPurchase receives goods from a supplier: stock rises by each item's
// quantity, the product's purchase price takes the latest value, and the
// unpaid remainder is added to the supplier balance.
func (s *Service) RecordPurchase(ctx context.Context, draft domain.PurchaseDraft) (domain.Purchase, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}
	purchase, err := s.buildPurchase(draft)
	if err != nil {
		return domain.Purchase{}, err
	}
	purchase.ID = s.ids.Next()
	purchase.Date = time.Now().UTC()

	saved, err := s.repo.CreatePurchase(ctx, purchase)
	if err != nil {
		return domain.Purchase{}, err
	}

	log.Printf("[service] purchase recorded id=%d supplier=%d remaining=%d", saved.ID, saved.SupplierID, saved.RemainingCents)
	return *saved, nil
}

// UpdatePurchase re-derives every side effect from the edited invoice: old
// stock deltas are reversed before the new ones apply, and the supplier
// balance moves by the change in the unpaid remainder.
func (s *Service) UpdatePurchase(ctx context.Context, id int64, draft domain.PurchaseDraft) (domain.Purchase, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}
	if id < 1 {
		return domain.Purchase{}, store.ErrInvalidRecord
	}

	old, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	if draft.SupplierID == 0 {
		draft.SupplierID = old.SupplierID
	}

	purchase, err := s.buildPurchase(draft)
	if err != nil {
		return domain.Purchase{}, err
	}
	purchase.ID = id

	saved, err := s.repo.UpdatePurchase(ctx, purchase)
	if err != nil {
		return domain.Purchase{}, err
	}

	log.Printf("[service] purchase updated id=%d remaining=%d", saved.ID, saved.RemainingCents)
	return *saved, nil
}

func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if id < 1 {
		return store.ErrInvalidRecord
	}
	if err := s.repo.DeletePurchase(ctx, id); err != nil {
		return err
	}
	log.Printf("[service] purchase deleted id=%d", id)
	return nil
}

func (s *Service) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 200
	}
	return s.repo.ListPurchases(ctx, limit)
}

func (s *Service) buildPurchase(draft domain.PurchaseDraft) (domain.Purchase, error) {
	if draft.SupplierID < 1 || len(draft.Items) == 0 {
		return domain.Purchase{}, store.ErrInvalidRecord
	}

	total := int64(0)
	items := make([]domain.PurchaseItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if item.ProductID < 1 || item.Qty < 1 || item.PurchasePriceCents < 0 {
			return domain.Purchase{}, store.ErrInvalidRecord
		}
		items = append(items, item)
		total += int64(item.Qty) * item.PurchasePriceCents
	}

	paid := draft.PaidCents
	if paid < 0 {
		return domain.Purchase{}, store.ErrInvalidRecord
	}
	if paid > total {
		paid = total
	}

	return domain.Purchase{
		SupplierID:     draft.SupplierID,
		Items:          items,
		TotalCents:     total,
		PaidCents:      paid,
		RemainingCents: total - paid,
	}, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.ErrInvalidRecord
	}

	supplier := domain.Supplier{
		ID:        s.ids.Next(),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	if id < 1 {
		return domain.Supplier{}, store.ErrInvalidRecord
	}
	updated, err := s.repo.UpdateSupplier(ctx, domain.Supplier{
		ID:    id,
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if id < 1 {
		return store.ErrInvalidRecord
	}
	return s.repo.DeleteSupplier(ctx, id)
}

// PaySupplier records a payment against the supplier's outstanding balance.
// Payments above the balance are clamped so the ledger never shows the store
// as a creditor by accident.
func (s *Service) PaySupplier(ctx context.Context, id int64, amountCents int64) (domain.Supplier, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}
	if id < 1 || amountCents < 1 {
		return domain.Supplier{}, store.ErrInvalidRecord
	}

	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	if amountCents > supplier.BalanceCents {
		amountCents = supplier.BalanceCents
	}
	if amountCents == 0 {
		return *supplier, nil
	}

	updated, err := s.repo.AdjustSupplierBalance(ctx, id, -amountCents)
	if err != nil {
		return domain.Supplier{}, err
	}
	log.Printf("[service] supplier payment id=%d amount=%d balance=%d", id, amountCents, updated.BalanceCents)
	return *updated, nil
}

// ListCustomers exposes debtor balances, so sellers do not get it. Debt sales
// only carry a customer name and never read this list.
func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx)
}

// SettleCustomerDebt records a cash payment from a debtor customer, clamped
// at the amount owed.
func (s *Service) SettleCustomerDebt(ctx context.Context, id int64, amountCents int64) (domain.Customer, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Customer{}, err
	}
	if id < 1 || amountCents < 1 {
		return domain.Customer{}, store.ErrInvalidRecord
	}

	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if amountCents > customer.BalanceCents {
		amountCents = customer.BalanceCents
	}
	if amountCents == 0 {
		return *customer, nil
	}

	updated, err := s.repo.AdjustCustomerBalance(ctx, id, -amountCents)
	if err != nil {
		return domain.Customer{}, err
	}
	log.Printf("[service] customer settlement id=%d amount=%d balance=%d", id, amountCents, updated.BalanceCents)
	return *updated, nil
}

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Expense{}, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.AmountCents < 1 {
		return domain.Expense{}, store.ErrInvalidRecord
	}

	expense := domain.Expense{
		ID:          s.ids.Next(),
		Description: req.Description,
		AmountCents: req.AmountCents,
		Date:        time.Now().UTC(),
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, date string, limit int) ([]domain.Expense, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	from, to, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 200
	}
	return s.repo.ListExpenses(ctx, from, to, limit)
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if id < 1 {
		return store.ErrInvalidRecord
	}
	return s.repo.DeleteExpense(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, name string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.AddCategory(ctx, strings.TrimSpace(name))
}

func (s *Service) RemoveCategory(ctx context.Context, name string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, strings.TrimSpace(name))
}

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}
	if settings.TaxRatePercent < 0 || settings.TaxRatePercent > 100 {
		return domain.Settings{}, store.ErrInvalidRecord
	}
	settings.StoreName = strings.TrimSpace(settings.StoreName)
	settings.Currency = strings.TrimSpace(settings.Currency)
	if settings.Currency == "" {
		settings.Currency = domain.DefaultSettings().Currency
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// Backup exports every collection as one snapshot tagged with a fresh uuid.
func (s *Service) Backup(ctx context.Context) (domain.Snapshot, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	snapshot, err := s.repo.ExportSnapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.ID = uuid.NewString()
	snapshot.CreatedAt = time.Now().UTC()
	log.Printf("[service] backup exported id=%s products=%d sales=%d", snapshot.ID, len(snapshot.Products), len(snapshot.Sales))
	return *snapshot, nil
}

// Restore overwrites every collection with the snapshot contents. The store
// applies it atomically, so a malformed snapshot leaves the current data
// untouched.
func (s *Service) Restore(ctx context.Context, snapshot domain.Snapshot) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.RestoreSnapshot(ctx, snapshot); err != nil {
		return err
	}
	log.Printf("[service] backup restored id=%s products=%d sales=%d", snapshot.ID, len(snapshot.Products), len(snapshot.Sales))
	return nil
}

// dayBounds converts a YYYY-MM-DD string into a UTC half-open interval. An
// empty string means no bounds.
func dayBounds(date string) (time.Time, time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, time.Time{}, nil
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, store.ErrInvalidRecord)
	}
	return day, day.AddDate(0, 0, 1), nil
}
