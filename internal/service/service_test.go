package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/idseq"
	"dukkan/backend/internal/store"
	"dukkan/backend/internal/store/memory"
)

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func sellerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "seller", Role: domain.RoleSeller})
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	ids := idseq.NewAt(100)
	repo := memory.New(ids)
	return New(repo, ids, nil, 0), repo
}

func mustCreateProduct(t *testing.T, svc *Service, name string, priceCents int64, costCents int64, stock int) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:       name,
		Category:   "مواسير",
		PriceCents: priceCents,
		CostCents:  costCents,
		Stock:      stock,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func mustCreateSupplier(t *testing.T, svc *Service, name string) domain.Supplier {
	t.Helper()
	supplier, err := svc.CreateSupplier(adminCtx(), domain.SupplierCreateRequest{Name: name})
	if err != nil {
		t.Fatalf("create supplier %s: %v", name, err)
	}
	return supplier
}

func productStock(t *testing.T, repo *memory.Store, id int64) int {
	t.Helper()
	product, err := repo.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return product.Stock
}

func supplierBalance(t *testing.T, repo *memory.Store, id int64) int64 {
	t.Helper()
	supplier, err := repo.GetSupplier(context.Background(), id)
	if err != nil {
		t.Fatalf("get supplier %d: %v", id, err)
	}
	return supplier.BalanceCents
}

func customerByName(t *testing.T, repo *memory.Store, name string) domain.Customer {
	t.Helper()
	customers, err := repo.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	for _, c := range customers {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("customer %q not found", name)
	return domain.Customer{}
}

func TestRecordSaleMovesStockAndComputesTotal(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 2 بوصة", 5000, 3500, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		PaymentType: domain.PaymentTypeCash,
		Items:       []domain.SaleDraftItem{{ProductID: product.ID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if sale.TotalCents != 15000 {
		t.Fatalf("expected total 15000, got %d", sale.TotalCents)
	}
	if got := productStock(t, repo, product.ID); got != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", got)
	}
	if sale.CustomerName != domain.WalkInCustomer {
		t.Fatalf("expected walk-in customer for cash sale, got %q", sale.CustomerName)
	}
	if sale.Cashier != "seller" {
		t.Fatalf("expected cashier from actor, got %q", sale.Cashier)
	}
}

func TestRecordSaleRejectsInsufficientStock(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "خلاط حوض", 12000, 9000, 2)

	_, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{{ProductID: product.ID, Qty: 3}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := productStock(t, repo, product.ID); got != 2 {
		t.Fatalf("rejected sale must not move stock, got %d", got)
	}
}

func TestRecordSaleMergesDuplicateLines(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "محبس 1 بوصة", 4000, 2500, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{
			{ProductID: product.ID, Qty: 2},
			{ProductID: product.ID, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(sale.Items))
	}
	if sale.Items[0].Qty != 3 {
		t.Fatalf("expected merged qty 3, got %d", sale.Items[0].Qty)
	}
	if got := productStock(t, repo, product.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
}

func TestRecordSaleDebtRequiresCustomerName(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "وصلة مرنة", 1500, 900, 5)

	_, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		PaymentType: domain.PaymentTypeDebt,
		Items:       []domain.SaleDraftItem{{ProductID: product.ID, Qty: 1}},
	})
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for nameless debt sale, got %v", err)
	}
}

func TestDebtSaleRaisesCustomerBalance(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 4 بوصة", 10000, 7000, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "علي",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.TotalCents != 20000 {
		t.Fatalf("expected total 20000, got %d", sale.TotalCents)
	}

	customer := customerByName(t, repo, "علي")
	if customer.BalanceCents != 20000 {
		t.Fatalf("expected customer balance 20000, got %d", customer.BalanceCents)
	}
}

func TestPartialReturnOfDebtSale(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 4 بوصة", 10000, 7000, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "علي",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	stockAfterSale := productStock(t, repo, product.ID)

	updated, err := svc.ReturnSale(adminCtx(), sale.ID, domain.SaleReturnRequest{
		Lines: []domain.ReturnLine{{ProductID: product.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("return sale: %v", err)
	}

	if updated.Items[0].ReturnedQty != 1 {
		t.Fatalf("expected returned qty 1, got %d", updated.Items[0].ReturnedQty)
	}
	if updated.Returned {
		t.Fatalf("partial return must not mark sale fully returned")
	}
	if got := productStock(t, repo, product.ID); got != stockAfterSale+1 {
		t.Fatalf("expected stock %d after return, got %d", stockAfterSale+1, got)
	}
	customer := customerByName(t, repo, "علي")
	if customer.BalanceCents != 10000 {
		t.Fatalf("expected customer balance 10000 after refund, got %d", customer.BalanceCents)
	}
}

func TestReturnExceedingRemainingIsRejectedWhole(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "شريط تفلون", 500, 200, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if _, err := svc.ReturnSale(adminCtx(), sale.ID, domain.SaleReturnRequest{
		Lines: []domain.ReturnLine{{ProductID: product.ID, Qty: 3}},
	}); !errors.Is(err, store.ErrReturnExceeded) {
		t.Fatalf("expected ErrReturnExceeded, got %v", err)
	}

	// A rejected return must leave no partial effects.
	if got := productStock(t, repo, product.ID); got != 8 {
		t.Fatalf("expected stock unchanged at 8, got %d", got)
	}
	reread, err := svc.GetSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if reread.Items[0].ReturnedQty != 0 {
		t.Fatalf("expected returned qty untouched, got %d", reread.Items[0].ReturnedQty)
	}
}

func TestReturnDuplicateLinesCollapsed(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "كوع 90", 700, 400, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{{ProductID: product.ID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	// 2+2 across duplicate lines exceeds the 3 sold.
	if _, err := svc.ReturnSale(adminCtx(), sale.ID, domain.SaleReturnRequest{
		Lines: []domain.ReturnLine{
			{ProductID: product.ID, Qty: 2},
			{ProductID: product.ID, Qty: 2},
		},
	}); !errors.Is(err, store.ErrReturnExceeded) {
		t.Fatalf("expected ErrReturnExceeded for collapsed duplicates, got %v", err)
	}
}

func TestReturnSaleAllRestoresFullIdentity(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "محبس 2 بوصة", 6000, 4200, 10)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "منى",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 4}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	updated, err := svc.ReturnSaleAll(adminCtx(), sale.ID)
	if err != nil {
		t.Fatalf("return all: %v", err)
	}
	if !updated.Returned {
		t.Fatalf("expected sale marked fully returned")
	}
	if got := productStock(t, repo, product.ID); got != 10 {
		t.Fatalf("expected stock back to 10, got %d", got)
	}
	customer := customerByName(t, repo, "منى")
	if customer.BalanceCents != 0 {
		t.Fatalf("expected customer balance back to 0, got %d", customer.BalanceCents)
	}

	if _, err := svc.ReturnSaleAll(adminCtx(), sale.ID); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected second full return to be rejected, got %v", err)
	}
}

func TestReturnRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "جلبة", 300, 150, 5)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{{ProductID: product.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if _, err := svc.ReturnSale(sellerCtx(), sale.ID, domain.SaleReturnRequest{
		Lines: []domain.ReturnLine{{ProductID: product.ID, Qty: 1}},
	}); err == nil {
		t.Fatalf("expected seller return to be rejected")
	}
}

func TestRecordPurchaseRaisesStockAndSupplierBalance(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 2 بوصة", 5000, 3500, 10)
	supplier := mustCreateSupplier(t, svc, "مؤسسة النور")

	purchase, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 5, PurchasePriceCents: 3000}},
		PaidCents:  5000,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	if purchase.TotalCents != 15000 {
		t.Fatalf("expected total 15000, got %d", purchase.TotalCents)
	}
	if purchase.RemainingCents != 10000 {
		t.Fatalf("expected remaining 10000, got %d", purchase.RemainingCents)
	}
	if got := productStock(t, repo, product.ID); got != 15 {
		t.Fatalf("expected stock 15, got %d", got)
	}
	if got := supplierBalance(t, repo, supplier.ID); got != 10000 {
		t.Fatalf("expected supplier balance 10000, got %d", got)
	}

	reread, err := repo.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if reread.PurchasePriceCents != 3000 {
		t.Fatalf("expected purchase price updated to 3000, got %d", reread.PurchasePriceCents)
	}
}

func TestDeletePurchaseRestoresState(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "خلاط مطبخ", 20000, 14000, 10)
	supplier := mustCreateSupplier(t, svc, "شركة المعادن")

	purchase, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 5, PurchasePriceCents: 12000}},
		PaidCents:  0,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	if err := svc.DeletePurchase(adminCtx(), purchase.ID); err != nil {
		t.Fatalf("delete purchase: %v", err)
	}

	if got := productStock(t, repo, product.ID); got != 10 {
		t.Fatalf("expected stock back to 10, got %d", got)
	}
	if got := supplierBalance(t, repo, supplier.ID); got != 0 {
		t.Fatalf("expected supplier balance back to 0, got %d", got)
	}
	if _, err := repo.GetPurchase(context.Background(), purchase.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected purchase deleted, got %v", err)
	}
}

func TestUpdatePurchaseRecomputesStockAndBalance(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "محبس مياه", 8000, 5000, 10)
	supplier := mustCreateSupplier(t, svc, "مخازن الدلتا")

	purchase, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 5, PurchasePriceCents: 4000}},
		PaidCents:  0,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	// Remaining 20000, stock 15.

	updated, err := svc.UpdatePurchase(adminCtx(), purchase.ID, domain.PurchaseDraft{
		Items:     []domain.PurchaseItem{{ProductID: product.ID, Qty: 3, PurchasePriceCents: 4000}},
		PaidCents: 4000,
	})
	if err != nil {
		t.Fatalf("update purchase: %v", err)
	}

	if updated.RemainingCents != 8000 {
		t.Fatalf("expected remaining 8000, got %d", updated.RemainingCents)
	}
	if got := productStock(t, repo, product.ID); got != 13 {
		t.Fatalf("expected stock 13 after qty edit, got %d", got)
	}
	if got := supplierBalance(t, repo, supplier.ID); got != 8000 {
		t.Fatalf("expected supplier balance 8000, got %d", got)
	}
	if updated.SupplierID != supplier.ID {
		t.Fatalf("supplier must be preserved on update")
	}
}

func TestPurchasePaidClampedToTotal(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "وصلة نحاس", 2000, 1200, 5)
	supplier := mustCreateSupplier(t, svc, "النحاس الحديثة")

	purchase, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 2, PurchasePriceCents: 1000}},
		PaidCents:  99999,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if purchase.PaidCents != 2000 || purchase.RemainingCents != 0 {
		t.Fatalf("expected paid clamped to total, got paid=%d remaining=%d", purchase.PaidCents, purchase.RemainingCents)
	}
	if got := supplierBalance(t, repo, supplier.ID); got != 0 {
		t.Fatalf("fully paid purchase must not change supplier balance, got %d", got)
	}
}

func TestRecordPurchaseUnknownSupplierRejected(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "تيل سباكة", 100, 50, 5)

	_, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: 9999,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 1, PurchasePriceCents: 50}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown supplier, got %v", err)
	}
}

func TestPaySupplierClampsAtBalance(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 1 بوصة", 3000, 2000, 10)
	supplier := mustCreateSupplier(t, svc, "الأمانة للتوريدات")

	if _, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 5, PurchasePriceCents: 2000}},
	}); err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	paid, err := svc.PaySupplier(adminCtx(), supplier.ID, 50000)
	if err != nil {
		t.Fatalf("pay supplier: %v", err)
	}
	if paid.BalanceCents != 0 {
		t.Fatalf("expected balance clamped to 0, got %d", paid.BalanceCents)
	}
	if got := supplierBalance(t, repo, supplier.ID); got != 0 {
		t.Fatalf("expected stored balance 0, got %d", got)
	}
}

func TestSettleCustomerDebtClampsAtBalance(t *testing.T) {
	svc, repo := newTestService(t)
	product := mustCreateProduct(t, svc, "خلاط دش", 15000, 11000, 10)

	if _, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "سعيد",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 1}},
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	customer := customerByName(t, repo, "سعيد")
	settled, err := svc.SettleCustomerDebt(adminCtx(), customer.ID, 99999)
	if err != nil {
		t.Fatalf("settle debt: %v", err)
	}
	if settled.BalanceCents != 0 {
		t.Fatalf("expected balance clamped to 0, got %d", settled.BalanceCents)
	}
}

func TestListCustomersAdminOnly(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "صنبور نحاس", 9000, 6000, 5)

	if _, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "حمدي",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 2}},
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	_, err := svc.ListCustomers(sellerCtx())
	if err == nil || !strings.Contains(err.Error(), "admin role required") {
		t.Fatalf("expected admin requirement for customer balances, got %v", err)
	}

	customers, err := svc.ListCustomers(adminCtx())
	if err != nil {
		t.Fatalf("list customers as admin: %v", err)
	}
	if len(customers) != 1 || customers[0].Name != "حمدي" {
		t.Fatalf("expected the debtor in the admin list, got %+v", customers)
	}
}

func TestExpensesLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	expense, err := svc.AddExpense(adminCtx(), domain.ExpenseCreateRequest{
		Description: "فاتورة كهرباء",
		AmountCents: 35000,
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if expense.ID < 1 {
		t.Fatalf("expected assigned expense id")
	}

	expenses, err := svc.ListExpenses(adminCtx(), "", 0)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}

	if err := svc.DeleteExpense(adminCtx(), expense.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if _, err := svc.AddExpense(adminCtx(), domain.ExpenseCreateRequest{Description: "", AmountCents: 100}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for empty description, got %v", err)
	}
}

func TestSaveSettingsValidatesTaxRate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SaveSettings(adminCtx(), domain.Settings{TaxRatePercent: 150}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected tax rate above 100 to be rejected, got %v", err)
	}

	saved, err := svc.SaveSettings(adminCtx(), domain.Settings{TaxRatePercent: 14, StoreName: "محل جديد"})
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if saved.Currency == "" {
		t.Fatalf("expected currency default to be applied")
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "ماسورة 3 بوصة", 7000, 5000, 10)
	supplier := mustCreateSupplier(t, svc, "الوفاء للسباكة")

	if _, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		CustomerName: "علي",
		PaymentType:  domain.PaymentTypeDebt,
		Items:        []domain.SaleDraftItem{{ProductID: product.ID, Qty: 2}},
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if _, err := svc.RecordPurchase(adminCtx(), domain.PurchaseDraft{
		SupplierID: supplier.ID,
		Items:      []domain.PurchaseItem{{ProductID: product.ID, Qty: 3, PurchasePriceCents: 4500}},
	}); err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	snapshot, err := svc.Backup(adminCtx())
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if snapshot.ID == "" {
		t.Fatalf("expected snapshot id")
	}

	// Restore into a fresh store and verify collections and id continuity.
	ids := idseq.NewAt(1)
	fresh := memory.New(ids)
	restored := New(fresh, ids, nil, 0)
	if err := restored.Restore(adminCtx(), snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}

	products, err := fresh.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != len(snapshot.Products) {
		t.Fatalf("expected %d products after restore, got %d", len(snapshot.Products), len(products))
	}
	if got := supplierBalance(t, fresh, supplier.ID); got != 13500 {
		t.Fatalf("expected supplier balance preserved, got %d", got)
	}

	// New ids must not collide with restored records.
	next, err := restored.CreateProduct(adminCtx(), domain.ProductCreateRequest{Name: "صنف جديد", PriceCents: 100})
	if err != nil {
		t.Fatalf("create product after restore: %v", err)
	}
	for _, p := range products {
		if p.ID == next.ID {
			t.Fatalf("id %d collides with restored product", next.ID)
		}
	}
}

func TestLowStockProductsSortedMostDepletedFirst(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreateProduct(t, svc, "صنف أ", 100, 50, 8)
	mustCreateProduct(t, svc, "صنف ب", 100, 50, 2)
	mustCreateProduct(t, svc, "صنف ج", 100, 50, 50)

	low, err := svc.LowStockProducts(context.Background())
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 low-stock products, got %d", len(low))
	}
	if low[0].Stock != 2 {
		t.Fatalf("expected most depleted first, got stock %d", low[0].Stock)
	}
}

func TestAdminGates(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateProduct(sellerCtx(), domain.ProductCreateRequest{Name: "x", PriceCents: 1}); err == nil {
		t.Fatalf("expected seller product creation to be rejected")
	}
	if _, err := svc.ListPurchases(sellerCtx(), 10); err == nil {
		t.Fatalf("expected seller purchase listing to be rejected")
	}
	if _, err := svc.Backup(sellerCtx()); err == nil {
		t.Fatalf("expected seller backup to be rejected")
	}
}
