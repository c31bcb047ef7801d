package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/idseq"
	"dukkan/backend/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	ids        *idseq.Generator
	products   map[int64]domain.Product
	sales      map[int64]*domain.Sale
	purchases  map[int64]*domain.Purchase
	suppliers  map[int64]domain.Supplier
	customers  map[int64]domain.Customer
	expenses   map[int64]domain.Expense
	categories []string
	settings   domain.Settings
	users      map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	sellerPwd := envOr("SEED_SELLER_PASSWORD", "seller123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_SELLER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"seller", sellerPwd, domain.RoleSeller},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New(ids *idseq.Generator) *Store {
	categories := make([]string, len(domain.DefaultCategories))
	copy(categories, domain.DefaultCategories)

	return &Store{
		ids:        ids,
		products:   make(map[int64]domain.Product),
		sales:      make(map[int64]*domain.Sale),
		purchases:  make(map[int64]*domain.Purchase),
		suppliers:  make(map[int64]domain.Supplier),
		customers:  make(map[int64]domain.Customer),
		expenses:   make(map[int64]domain.Expense),
		categories: categories,
		settings:   domain.DefaultSettings(),
		users:      seedUsers(),
	}
}

func NewSeeded(ids *idseq.Generator) *Store {
	s := New(ids)

	seed := []domain.Product{
		{Name: "ماسورة 2 بوصة", Category: "مواسير", PriceCents: 5000, CostCents: 3500, Stock: 120},
		{Name: "ماسورة 4 بوصة", Category: "مواسير", PriceCents: 9500, CostCents: 7000, Stock: 80},
		{Name: "خلاط مطبخ", Category: "خلاطات", PriceCents: 45000, CostCents: 32000, Stock: 25},
		{Name: "خلاط حمام", Category: "خلاطات", PriceCents: 62000, CostCents: 47000, Stock: 18},
		{Name: "محبس 1/2 بوصة", Category: "محابس", PriceCents: 3500, CostCents: 2200, Stock: 200},
		{Name: "محبس زاوية", Category: "محابس", PriceCents: 4200, CostCents: 2800, Stock: 150},
		{Name: "وصلة كوع", Category: "وصلات", PriceCents: 800, CostCents: 450, Stock: 500},
		{Name: "وصلة تي", Category: "وصلات", PriceCents: 950, CostCents: 550, Stock: 400},
		{Name: "شريط تفلون", Category: "أخرى", PriceCents: 500, CostCents: 250, Stock: 8},
	}
	for _, p := range seed {
		p.ID = ids.Next()
		p.Barcode = barcodeFor(p.ID)
		s.products[p.ID] = p
	}

	return s
}

func barcodeFor(id int64) string {
	return fmt.Sprintf("P%06d", id)
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrInvalidRecord
	}
	for _, p := range s.products {
		if p.Barcode == barcode {
			copyProduct := p
			return &copyProduct, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID < 1 || product.Name == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidRecord
	}

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID < 1 || product.Name == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ImportProducts(_ context.Context, incoming []domain.Product) (domain.ImportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := make(map[string]int64, len(s.products))
	for id, p := range s.products {
		byName[p.Name] = id
	}

	summary := domain.ImportSummary{}
	for _, in := range incoming {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return domain.ImportSummary{}, store.ErrInvalidRecord
		}
		if existingID, ok := byName[in.Name]; ok {
			current := s.products[existingID]
			in.ID = existingID
			if in.Barcode == "" {
				in.Barcode = current.Barcode
			}
			if in.PurchasePriceCents == 0 {
				in.PurchasePriceCents = current.PurchasePriceCents
			}
			s.products[existingID] = in
			summary.Updated++
		} else {
			if in.ID < 1 {
				return domain.ImportSummary{}, store.ErrInvalidRecord
			}
			if in.Barcode == "" {
				in.Barcode = barcodeFor(in.ID)
			}
			s.products[in.ID] = in
			byName[in.Name] = in.ID
			summary.Created++
		}
		if in.Category != "" && !slices.Contains(s.categories, in.Category) {
			s.categories = append(s.categories, in.Category)
		}
	}

	return summary, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID < 1 || len(sale.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	if sale.PaymentType != domain.PaymentTypeCash && sale.PaymentType != domain.PaymentTypeDebt {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.ErrInvalidRecord
	}

	// Validate stock before touching anything so a rejected sale leaves no
	// partial effects behind. Items for unknown products are kept on the
	// invoice but never move stock.
	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidRecord
		}
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		if product.Stock < item.Qty {
			return nil, store.ErrInsufficientStock
		}
	}

	for _, item := range sale.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		product.Stock -= item.Qty
		s.products[item.ProductID] = product
	}

	if sale.PaymentType == domain.PaymentTypeDebt {
		customer := s.findOrCreateCustomer(sale.CustomerName)
		customer.BalanceCents += sale.TotalCents
		s.customers[customer.ID] = customer
	}

	saved := cloneSale(&sale)
	s.sales[sale.ID] = saved
	return cloneSale(saved), nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !from.IsZero() && sale.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.Date.Before(to) {
			continue
		}
		result = append(result, *cloneSale(sale))
	}

	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.Date.Equal(b.Date) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ApplyReturn(_ context.Context, saleID int64, lines []domain.ReturnLine) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.sales[saleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if len(lines) == 0 {
		return nil, store.ErrInvalidRecord
	}

	// Collapse duplicate lines for the same product so the remaining-quantity
	// check sees the cumulative request.
	wanted := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, store.ErrInvalidRecord
		}
		wanted[line.ProductID] += line.Qty
	}

	itemIdx := make(map[int64]int, len(sale.Items))
	for i, item := range sale.Items {
		itemIdx[item.ProductID] = i
	}
	for productID, qty := range wanted {
		idx, ok := itemIdx[productID]
		if !ok {
			return nil, store.ErrInvalidRecord
		}
		item := sale.Items[idx]
		if qty > item.Qty-item.ReturnedQty {
			return nil, store.ErrReturnExceeded
		}
	}

	refund := int64(0)
	for productID, qty := range wanted {
		idx := itemIdx[productID]
		sale.Items[idx].ReturnedQty += qty
		refund += int64(qty) * sale.Items[idx].PriceCents

		if product, exists := s.products[productID]; exists {
			product.Stock += qty
			s.products[productID] = product
		}
	}

	if sale.PaymentType == domain.PaymentTypeDebt {
		if customer, ok := s.findCustomerByName(sale.CustomerName); ok {
			customer.BalanceCents -= refund
			s.customers[customer.ID] = customer
		}
	}

	fullyReturned := true
	for _, item := range sale.Items {
		if item.ReturnedQty < item.Qty {
			fullyReturned = false
			break
		}
	}
	sale.Returned = fullyReturned

	return cloneSale(sale), nil
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.ID < 1 || len(purchase.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	supplier, exists := s.suppliers[purchase.SupplierID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.purchases[purchase.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	for _, item := range purchase.Items {
		if item.Qty < 1 || item.PurchasePriceCents < 0 {
			return nil, store.ErrInvalidRecord
		}
	}

	s.applyPurchaseItems(purchase.Items, 1)
	supplier.BalanceCents += purchase.RemainingCents
	s.suppliers[supplier.ID] = supplier

	saved := clonePurchase(&purchase)
	s.purchases[purchase.ID] = saved
	return clonePurchase(saved), nil
}

func (s *Store) GetPurchase(_ context.Context, id int64) (*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, exists := s.purchases[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return clonePurchase(purchase), nil
}

func (s *Store) ListPurchases(_ context.Context, limit int) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Purchase, 0, len(s.purchases))
	for _, purchase := range s.purchases {
		result = append(result, *clonePurchase(purchase))
	}
	slices.SortFunc(result, func(a, b domain.Purchase) int {
		if a.Date.Equal(b.Date) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) UpdatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.purchases[purchase.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if purchase.SupplierID != old.SupplierID {
		return nil, store.ErrInvalidRecord
	}
	if len(purchase.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	for _, item := range purchase.Items {
		if item.Qty < 1 || item.PurchasePriceCents < 0 {
			return nil, store.ErrInvalidRecord
		}
	}
	supplier, exists := s.suppliers[purchase.SupplierID]
	if !exists {
		return nil, store.ErrNotFound
	}

	// Reverse the old item effects, then apply the new ones, so editing
	// quantities moves stock by exactly the difference.
	s.applyPurchaseItems(old.Items, -1)
	s.applyPurchaseItems(purchase.Items, 1)

	supplier.BalanceCents -= old.RemainingCents - purchase.RemainingCents
	s.suppliers[supplier.ID] = supplier

	purchase.Date = old.Date
	saved := clonePurchase(&purchase)
	s.purchases[purchase.ID] = saved
	return clonePurchase(saved), nil
}

func (s *Store) DeletePurchase(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, exists := s.purchases[id]
	if !exists {
		return store.ErrNotFound
	}

	s.applyPurchaseItems(purchase.Items, -1)
	if supplier, ok := s.suppliers[purchase.SupplierID]; ok {
		supplier.BalanceCents -= purchase.RemainingCents
		s.suppliers[supplier.ID] = supplier
	}

	delete(s.purchases, id)
	return nil
}

// applyPurchaseItems moves stock by sign*qty for every known product and, when
// adding, records the purchase price on the product (last write wins). Items
// for unknown products are skipped.
func (s *Store) applyPurchaseItems(items []domain.PurchaseItem, sign int) {
	for _, item := range items {
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		product.Stock += sign * item.Qty
		if sign > 0 {
			product.PurchasePriceCents = item.PurchasePriceCents
		}
		s.products[item.ProductID] = product
	}
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.ID < 1 || supplier.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	s.suppliers[supplier.ID] = supplier
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, supplier)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.Name, b.Name)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return suppliers, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	existing, exists := s.suppliers[supplier.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	supplier.CreatedAt = existing.CreatedAt
	supplier.BalanceCents = existing.BalanceCents
	s.suppliers[supplier.ID] = supplier
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

func (s *Store) AdjustSupplierBalance(_ context.Context, id int64, deltaCents int64) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	supplier.BalanceCents += deltaCents
	s.suppliers[id] = supplier
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		customers = append(customers, customer)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) AdjustCustomerBalance(_ context.Context, id int64, deltaCents int64) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	customer.BalanceCents += deltaCents
	s.customers[id] = customer
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) findCustomerByName(name string) (domain.Customer, bool) {
	for _, customer := range s.customers {
		if customer.Name == name {
			return customer, true
		}
	}
	return domain.Customer{}, false
}

func (s *Store) findOrCreateCustomer(name string) domain.Customer {
	if customer, ok := s.findCustomerByName(name); ok {
		return customer
	}
	customer := domain.Customer{
		ID:        s.ids.Next(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.customers[customer.ID] = customer
	return customer
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID < 1 || strings.TrimSpace(expense.Description) == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidRecord
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	s.expenses[expense.ID] = expense
	copyExpense := expense
	return &copyExpense, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		if !from.IsZero() && expense.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !expense.Date.Before(to) {
			continue
		}
		result = append(result, expense)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.Date.Equal(b.Date) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories, nil
}

func (s *Store) AddCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return store.ErrInvalidRecord
	}
	if slices.Contains(s.categories, name) {
		return store.ErrInvalidRecord
	}
	s.categories = append(s.categories, name)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.categories, name)
	if idx < 0 {
		return store.ErrNotFound
	}
	s.categories = slices.Delete(s.categories, idx, idx+1)
	return nil
}

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return nil
}

func (s *Store) ExportSnapshot(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := &domain.Snapshot{
		Products:   make([]domain.Product, 0, len(s.products)),
		Sales:      make([]domain.Sale, 0, len(s.sales)),
		Purchases:  make([]domain.Purchase, 0, len(s.purchases)),
		Suppliers:  make([]domain.Supplier, 0, len(s.suppliers)),
		Customers:  make([]domain.Customer, 0, len(s.customers)),
		Expenses:   make([]domain.Expense, 0, len(s.expenses)),
		Categories: make([]string, len(s.categories)),
		Settings:   s.settings,
	}
	for _, p := range s.products {
		snapshot.Products = append(snapshot.Products, p)
	}
	for _, sale := range s.sales {
		snapshot.Sales = append(snapshot.Sales, *cloneSale(sale))
	}
	for _, purchase := range s.purchases {
		snapshot.Purchases = append(snapshot.Purchases, *clonePurchase(purchase))
	}
	for _, supplier := range s.suppliers {
		snapshot.Suppliers = append(snapshot.Suppliers, supplier)
	}
	for _, customer := range s.customers {
		snapshot.Customers = append(snapshot.Customers, customer)
	}
	for _, expense := range s.expenses {
		snapshot.Expenses = append(snapshot.Expenses, expense)
	}
	copy(snapshot.Categories, s.categories)

	slices.SortFunc(snapshot.Products, func(a, b domain.Product) int { return cmpInt64(a.ID, b.ID) })
	slices.SortFunc(snapshot.Sales, func(a, b domain.Sale) int { return cmpInt64(a.ID, b.ID) })
	slices.SortFunc(snapshot.Purchases, func(a, b domain.Purchase) int { return cmpInt64(a.ID, b.ID) })
	slices.SortFunc(snapshot.Suppliers, func(a, b domain.Supplier) int { return cmpInt64(a.ID, b.ID) })
	slices.SortFunc(snapshot.Customers, func(a, b domain.Customer) int { return cmpInt64(a.ID, b.ID) })
	slices.SortFunc(snapshot.Expenses, func(a, b domain.Expense) int { return cmpInt64(a.ID, b.ID) })

	return snapshot, nil
}

func (s *Store) RestoreSnapshot(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[int64]domain.Product, len(snapshot.Products))
	for _, p := range snapshot.Products {
		if p.ID < 1 {
			return store.ErrInvalidRecord
		}
		products[p.ID] = p
		s.ids.Observe(p.ID)
	}
	sales := make(map[int64]*domain.Sale, len(snapshot.Sales))
	for i := range snapshot.Sales {
		sale := snapshot.Sales[i]
		if sale.ID < 1 {
			return store.ErrInvalidRecord
		}
		sales[sale.ID] = cloneSale(&sale)
		s.ids.Observe(sale.ID)
	}
	purchases := make(map[int64]*domain.Purchase, len(snapshot.Purchases))
	for i := range snapshot.Purchases {
		purchase := snapshot.Purchases[i]
		if purchase.ID < 1 {
			return store.ErrInvalidRecord
		}
		purchases[purchase.ID] = clonePurchase(&purchase)
		s.ids.Observe(purchase.ID)
	}
	suppliers := make(map[int64]domain.Supplier, len(snapshot.Suppliers))
	for _, supplier := range snapshot.Suppliers {
		suppliers[supplier.ID] = supplier
		s.ids.Observe(supplier.ID)
	}
	customers := make(map[int64]domain.Customer, len(snapshot.Customers))
	for _, customer := range snapshot.Customers {
		customers[customer.ID] = customer
		s.ids.Observe(customer.ID)
	}
	expenses := make(map[int64]domain.Expense, len(snapshot.Expenses))
	for _, expense := range snapshot.Expenses {
		expenses[expense.ID] = expense
		s.ids.Observe(expense.ID)
	}
	categories := make([]string, len(snapshot.Categories))
	copy(categories, snapshot.Categories)

	s.products = products
	s.sales = sales
	s.purchases = purchases
	s.suppliers = suppliers
	s.customers = customers
	s.expenses = expenses
	s.categories = categories
	s.settings = snapshot.Settings
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRecord
	}
	if _, exists := s.users[username]; exists {
		return store.ErrInvalidRecord
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleSeller
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRecord
	}
	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src *domain.Sale) *domain.Sale {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return &dup
}

func clonePurchase(src *domain.Purchase) *domain.Purchase {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.PurchaseItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return &dup
}
