package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/idseq"
	"dukkan/backend/internal/store"
)

type Store struct {
	db  *sql.DB
	ids *idseq.Generator
}

func New(ctx context.Context, databaseURL string, ids *idseq.Generator) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, ids: ids}, nil
}

// ensureSchema creates the tables on first start. Statements are idempotent so
// restarts against a provisioned database are no-ops.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id bigint PRIMARY KEY,
			name text NOT NULL,
			category text NOT NULL DEFAULT '',
			barcode text NOT NULL DEFAULT '',
			price_cents bigint NOT NULL DEFAULT 0,
			cost_cents bigint NOT NULL DEFAULT 0,
			purchase_price_cents bigint NOT NULL DEFAULT 0,
			stock integer NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id bigint PRIMARY KEY,
			date timestamptz NOT NULL,
			customer_name text NOT NULL DEFAULT '',
			payment_type text NOT NULL,
			items jsonb NOT NULL,
			total_cents bigint NOT NULL DEFAULT 0,
			cashier text NOT NULL DEFAULT '',
			returned boolean NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id bigint PRIMARY KEY,
			name text NOT NULL,
			phone text NOT NULL DEFAULT '',
			balance_cents bigint NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id bigint PRIMARY KEY,
			supplier_id bigint NOT NULL,
			date timestamptz NOT NULL,
			items jsonb NOT NULL,
			total_cents bigint NOT NULL DEFAULT 0,
			paid_cents bigint NOT NULL DEFAULT 0,
			remaining_cents bigint NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id bigint PRIMARY KEY,
			name text NOT NULL UNIQUE,
			phone text NOT NULL DEFAULT '',
			balance_cents bigint NOT NULL DEFAULT 0,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id bigint PRIMARY KEY,
			description text NOT NULL,
			amount_cents bigint NOT NULL,
			date timestamptz NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			position serial,
			name text PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id integer PRIMARY KEY,
			tax_rate_percent double precision NOT NULL DEFAULT 0,
			currency text NOT NULL DEFAULT '',
			store_name text NOT NULL DEFAULT '',
			management text NOT NULL DEFAULT '',
			phone1 text NOT NULL DEFAULT '',
			phone2 text NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username text PRIMARY KEY,
			password text NOT NULL,
			role text NOT NULL,
			active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Barcode, &p.PriceCents, &p.CostCents, &p.PurchasePriceCents, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Barcode, &p.PriceCents, &p.CostCents, &p.PurchasePriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrInvalidRecord
	}
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock
		FROM products
		WHERE barcode = $1
	`, barcode).Scan(&p.ID, &p.Name, &p.Category, &p.Barcode, &p.PriceCents, &p.CostCents, &p.PurchasePriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID < 1 || product.Name == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
	`, product.ID, product.Name, product.Category, product.Barcode, product.PriceCents, product.CostCents, product.PurchasePriceCents, product.Stock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID < 1 || product.Name == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalidRecord
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, barcode = $4, price_cents = $5, cost_cents = $6, purchase_price_cents = $7, stock = $8, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.Barcode, product.PriceCents, product.CostCents, product.PurchasePriceCents, product.Stock)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ImportProducts(ctx context.Context, incoming []domain.Product) (domain.ImportSummary, error) {
	if len(incoming) == 0 {
		return domain.ImportSummary{}, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.ImportSummary{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id, name, barcode, purchase_price_cents FROM products`)
	if err != nil {
		return domain.ImportSummary{}, err
	}
	type existing struct {
		id                 int64
		barcode            string
		purchasePriceCents int64
	}
	byName := map[string]existing{}
	for rows.Next() {
		var id int64
		var name, barcode string
		var purchasePrice int64
		if err := rows.Scan(&id, &name, &barcode, &purchasePrice); err != nil {
			rows.Close()
			return domain.ImportSummary{}, err
		}
		byName[name] = existing{id: id, barcode: barcode, purchasePriceCents: purchasePrice}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.ImportSummary{}, err
	}

	summary := domain.ImportSummary{}
	for _, in := range incoming {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return domain.ImportSummary{}, store.ErrInvalidRecord
		}
		if current, ok := byName[in.Name]; ok {
			if in.Barcode == "" {
				in.Barcode = current.barcode
			}
			if in.PurchasePriceCents == 0 {
				in.PurchasePriceCents = current.purchasePriceCents
			}
			_, err := tx.ExecContext(ctx, `
				UPDATE products
				SET category = $2, barcode = $3, price_cents = $4, cost_cents = $5, purchase_price_cents = $6, stock = $7, updated_at = now()
				WHERE id = $1
			`, current.id, in.Category, in.Barcode, in.PriceCents, in.CostCents, in.PurchasePriceCents, in.Stock)
			if err != nil {
				return domain.ImportSummary{}, err
			}
			summary.Updated++
		} else {
			if in.ID < 1 {
				return domain.ImportSummary{}, store.ErrInvalidRecord
			}
			if in.Barcode == "" {
				in.Barcode = fmt.Sprintf("P%06d", in.ID)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
			`, in.ID, in.Name, in.Category, in.Barcode, in.PriceCents, in.CostCents, in.PurchasePriceCents, in.Stock)
			if err != nil {
				return domain.ImportSummary{}, err
			}
			byName[in.Name] = existing{id: in.ID, barcode: in.Barcode, purchasePriceCents: in.PurchasePriceCents}
			summary.Created++
		}
		if in.Category != "" {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
			`, in.Category)
			if err != nil {
				return domain.ImportSummary{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.ImportSummary{}, err
	}
	return summary, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID < 1 || len(sale.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	if sale.PaymentType != domain.PaymentTypeCash && sale.PaymentType != domain.PaymentTypeDebt {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, date, customer_name, payment_type, items, total_cents, cashier, returned)
		VALUES ($1,$2,$3,$4,$5,$6,$7,false)
	`, sale.ID, sale.Date, sale.CustomerName, sale.PaymentType, itemsJSON, sale.TotalCents, sale.Cashier)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidRecord
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2
		`, item.ProductID, item.Qty)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			// Unknown products are skipped; a known product that did not
			// update means the stock guard failed.
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists); err != nil {
				return nil, err
			}
			if exists {
				return nil, store.ErrInsufficientStock
			}
		}
	}

	if sale.PaymentType == domain.PaymentTypeDebt {
		if err := s.addCustomerDebt(ctx, tx, sale.CustomerName, sale.TotalCents); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := sale
	return &saved, nil
}

func (s *Store) addCustomerDebt(ctx context.Context, tx *sql.Tx, name string, amountCents int64) error {
	var customerID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM customers WHERE name = $1 FOR UPDATE`, name).Scan(&customerID)
	if errors.Is(err, sql.ErrNoRows) {
		customerID = s.ids.Next()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, balance_cents, created_at)
			VALUES ($1,$2,'',0,now())
		`, customerID, name)
	}
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE customers SET balance_cents = balance_cents + $2 WHERE id = $1
	`, customerID, amountCents)
	return err
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return scanSale(s.db.QueryRowContext(ctx, `
		SELECT id, date, customer_name, payment_type, items, total_cents, cashier, returned
		FROM sales
		WHERE id = $1
	`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var itemsJSON []byte
	err := row.Scan(&sale.ID, &sale.Date, &sale.CustomerName, &sale.PaymentType, &itemsJSON, &sale.TotalCents, &sale.Cashier, &sale.Returned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
		return nil, err
	}
	sale.Date = sale.Date.UTC()
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 1000000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, customer_name, payment_type, items, total_cents, cashier, returned
		FROM sales
		WHERE ($1::timestamptz IS NULL OR date >= $1)
			AND ($2::timestamptz IS NULL OR date < $2)
		ORDER BY date DESC, id DESC
		LIMIT $3
	`, nullTime(from), nullTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) ApplyReturn(ctx context.Context, saleID int64, lines []domain.ReturnLine) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sale, err := scanSale(tx.QueryRowContext(ctx, `
		SELECT id, date, customer_name, payment_type, items, total_cents, cashier, returned
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, saleID))
	if err != nil {
		return nil, err
	}

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

		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
		`, productID, qty)
		if err != nil {
			return nil, err
		}
	}

	if sale.PaymentType == domain.PaymentTypeDebt {
		_, err := tx.ExecContext(ctx, `
			UPDATE customers SET balance_cents = balance_cents - $2 WHERE name = $1
		`, sale.CustomerName, refund)
		if err != nil {
			return nil, err
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

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE sales SET items = $2, returned = $3 WHERE id = $1
	`, sale.ID, itemsJSON, sale.Returned)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if purchase.ID < 1 || len(purchase.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	for _, item := range purchase.Items {
		if item.Qty < 1 || item.PurchasePriceCents < 0 {
			return nil, store.ErrInvalidRecord
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var supplierExists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, purchase.SupplierID).Scan(&supplierExists); err != nil {
		return nil, err
	}
	if !supplierExists {
		return nil, store.ErrNotFound
	}

	itemsJSON, err := json.Marshal(purchase.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchases (id, supplier_id, date, items, total_cents, paid_cents, remaining_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, purchase.ID, purchase.SupplierID, purchase.Date, itemsJSON, purchase.TotalCents, purchase.PaidCents, purchase.RemainingCents)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}

	if err := applyPurchaseItemsTx(ctx, tx, purchase.Items, 1); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE suppliers SET balance_cents = balance_cents + $2 WHERE id = $1
	`, purchase.SupplierID, purchase.RemainingCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := purchase
	return &saved, nil
}

// applyPurchaseItemsTx moves stock by sign*qty per item. When adding, the
// product's purchase price takes the item's value (last write wins). Unknown
// products are skipped.
func applyPurchaseItemsTx(ctx context.Context, tx *sql.Tx, items []domain.PurchaseItem, sign int) error {
	for _, item := range items {
		if sign > 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock + $2, purchase_price_cents = $3, updated_at = now()
				WHERE id = $1
			`, item.ProductID, item.Qty, item.PurchasePriceCents)
			if err != nil {
				return err
			}
			continue
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1
		`, item.ProductID, item.Qty)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	return scanPurchase(s.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, date, items, total_cents, paid_cents, remaining_cents
		FROM purchases
		WHERE id = $1
	`, id))
}

func scanPurchase(row rowScanner) (*domain.Purchase, error) {
	var purchase domain.Purchase
	var itemsJSON []byte
	err := row.Scan(&purchase.ID, &purchase.SupplierID, &purchase.Date, &itemsJSON, &purchase.TotalCents, &purchase.PaidCents, &purchase.RemainingCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &purchase.Items); err != nil {
		return nil, err
	}
	purchase.Date = purchase.Date.UTC()
	return &purchase, nil
}

func (s *Store) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit < 1 {
		limit = 1000000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, date, items, total_cents, paid_cents, remaining_cents
		FROM purchases
		ORDER BY date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, 64)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) UpdatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if len(purchase.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	for _, item := range purchase.Items {
		if item.Qty < 1 || item.PurchasePriceCents < 0 {
			return nil, store.ErrInvalidRecord
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	old, err := scanPurchase(tx.QueryRowContext(ctx, `
		SELECT id, supplier_id, date, items, total_cents, paid_cents, remaining_cents
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, purchase.ID))
	if err != nil {
		return nil, err
	}
	if purchase.SupplierID != old.SupplierID {
		return nil, store.ErrInvalidRecord
	}

	if err := applyPurchaseItemsTx(ctx, tx, old.Items, -1); err != nil {
		return nil, err
	}
	if err := applyPurchaseItemsTx(ctx, tx, purchase.Items, 1); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE suppliers SET balance_cents = balance_cents - $2 WHERE id = $1
	`, purchase.SupplierID, old.RemainingCents-purchase.RemainingCents)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	purchase.Date = old.Date
	itemsJSON, err := json.Marshal(purchase.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE purchases
		SET items = $2, total_cents = $3, paid_cents = $4, remaining_cents = $5
		WHERE id = $1
	`, purchase.ID, itemsJSON, purchase.TotalCents, purchase.PaidCents, purchase.RemainingCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := purchase
	return &saved, nil
}

func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	purchase, err := scanPurchase(tx.QueryRowContext(ctx, `
		SELECT id, supplier_id, date, items, total_cents, paid_cents, remaining_cents
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return err
	}

	if err := applyPurchaseItemsTx(ctx, tx, purchase.Items, -1); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE suppliers SET balance_cents = balance_cents - $2 WHERE id = $1
	`, purchase.SupplierID, purchase.RemainingCents)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.ID < 1 || supplier.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, phone, balance_cents, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, supplier.ID, supplier.Name, supplier.Phone, supplier.BalanceCents, supplier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, balance_cents, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.BalanceCents, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, balance_cents, created_at
		FROM suppliers
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.BalanceCents, &supplier.CreatedAt); err != nil {
			return nil, err
		}
		supplier.CreatedAt = supplier.CreatedAt.UTC()
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	updated, err := s.GetSupplier(ctx, supplier.ID)
	if err != nil {
		return nil, err
	}
	updated.Name = supplier.Name
	updated.Phone = supplier.Phone

	_, err = s.db.ExecContext(ctx, `
		UPDATE suppliers SET name = $2, phone = $3 WHERE id = $1
	`, updated.ID, updated.Name, updated.Phone)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AdjustSupplierBalance(ctx context.Context, id int64, deltaCents int64) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		UPDATE suppliers SET balance_cents = balance_cents + $2
		WHERE id = $1
		RETURNING id, name, phone, balance_cents, created_at
	`, id, deltaCents).Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.BalanceCents, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, balance_cents, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.BalanceCents, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, balance_cents, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.BalanceCents, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) AdjustCustomerBalance(ctx context.Context, id int64, deltaCents int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		UPDATE customers SET balance_cents = balance_cents + $2
		WHERE id = $1
		RETURNING id, name, phone, balance_cents, created_at
	`, id, deltaCents).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.BalanceCents, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID < 1 || strings.TrimSpace(expense.Description) == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidRecord
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount_cents, date)
		VALUES ($1,$2,$3,$4)
	`, expense.ID, expense.Description, expense.AmountCents, expense.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 1000000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, date
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR date >= $1)
			AND ($2::timestamptz IS NULL OR date < $2)
		ORDER BY date DESC, id DESC
		LIMIT $3
	`, nullTime(from), nullTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.AmountCents, &expense.Date); err != nil {
			return nil, err
		}
		expense.Date = expense.Date.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0, 16)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES ($1)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRecord
		}
		return err
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE name = $1`, name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT tax_rate_percent, currency, store_name, management, phone1, phone2
		FROM settings
		WHERE id = 1
	`).Scan(&settings.TaxRatePercent, &settings.Currency, &settings.StoreName, &settings.Management, &settings.Phone1, &settings.Phone2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, tax_rate_percent, currency, store_name, management, phone1, phone2)
		VALUES (1,$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id)
		DO UPDATE SET tax_rate_percent = EXCLUDED.tax_rate_percent, currency = EXCLUDED.currency,
			store_name = EXCLUDED.store_name, management = EXCLUDED.management,
			phone1 = EXCLUDED.phone1, phone2 = EXCLUDED.phone2
	`, settings.TaxRatePercent, settings.Currency, settings.StoreName, settings.Management, settings.Phone1, settings.Phone2)
	return err
}

func (s *Store) ExportSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Reads inside one repeatable-read transaction so every collection comes
	// from the same snapshot of the database.
	snapshot := &domain.Snapshot{}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Barcode, &p.PriceCents, &p.CostCents, &p.PurchasePriceCents, &p.Stock); err != nil {
			rows.Close()
			return nil, err
		}
		snapshot.Products = append(snapshot.Products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, date, customer_name, payment_type, items, total_cents, cashier, returned
		FROM sales ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snapshot.Sales = append(snapshot.Sales, *sale)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, supplier_id, date, items, total_cents, paid_cents, remaining_cents
		FROM purchases ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snapshot.Purchases = append(snapshot.Purchases, *purchase)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, name, phone, balance_cents, created_at FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.BalanceCents, &supplier.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		supplier.CreatedAt = supplier.CreatedAt.UTC()
		snapshot.Suppliers = append(snapshot.Suppliers, supplier)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, name, phone, balance_cents, created_at FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.BalanceCents, &customer.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		snapshot.Customers = append(snapshot.Customers, customer)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, description, amount_cents, date FROM expenses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.AmountCents, &expense.Date); err != nil {
			rows.Close()
			return nil, err
		}
		expense.Date = expense.Date.UTC()
		snapshot.Expenses = append(snapshot.Expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		snapshot.Categories = append(snapshot.Categories, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		SELECT tax_rate_percent, currency, store_name, management, phone1, phone2
		FROM settings WHERE id = 1
	`).Scan(&snapshot.Settings.TaxRatePercent, &snapshot.Settings.Currency, &snapshot.Settings.StoreName, &snapshot.Settings.Management, &snapshot.Settings.Phone1, &snapshot.Settings.Phone2)
	if errors.Is(err, sql.ErrNoRows) {
		snapshot.Settings = domain.DefaultSettings()
	} else if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Store) RestoreSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	for _, p := range snapshot.Products {
		if p.ID < 1 {
			return store.ErrInvalidRecord
		}
	}
	for _, sale := range snapshot.Sales {
		if sale.ID < 1 {
			return store.ErrInvalidRecord
		}
	}
	for _, purchase := range snapshot.Purchases {
		if purchase.ID < 1 {
			return store.ErrInvalidRecord
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"sales", "purchases", "expenses", "customers", "suppliers", "products", "categories"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	for _, p := range snapshot.Products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, category, barcode, price_cents, cost_cents, purchase_price_cents, stock, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		`, p.ID, p.Name, p.Category, p.Barcode, p.PriceCents, p.CostCents, p.PurchasePriceCents, p.Stock)
		if err != nil {
			return err
		}
		s.ids.Observe(p.ID)
	}
	for _, sale := range snapshot.Sales {
		itemsJSON, err := json.Marshal(sale.Items)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales (id, date, customer_name, payment_type, items, total_cents, cashier, returned)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, sale.ID, sale.Date, sale.CustomerName, sale.PaymentType, itemsJSON, sale.TotalCents, sale.Cashier, sale.Returned)
		if err != nil {
			return err
		}
		s.ids.Observe(sale.ID)
	}
	for _, purchase := range snapshot.Purchases {
		itemsJSON, err := json.Marshal(purchase.Items)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchases (id, supplier_id, date, items, total_cents, paid_cents, remaining_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, purchase.ID, purchase.SupplierID, purchase.Date, itemsJSON, purchase.TotalCents, purchase.PaidCents, purchase.RemainingCents)
		if err != nil {
			return err
		}
		s.ids.Observe(purchase.ID)
	}
	for _, supplier := range snapshot.Suppliers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suppliers (id, name, phone, balance_cents, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, supplier.ID, supplier.Name, supplier.Phone, supplier.BalanceCents, supplier.CreatedAt)
		if err != nil {
			return err
		}
		s.ids.Observe(supplier.ID)
	}
	for _, customer := range snapshot.Customers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, balance_cents, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, customer.ID, customer.Name, customer.Phone, customer.BalanceCents, customer.CreatedAt)
		if err != nil {
			return err
		}
		s.ids.Observe(customer.ID)
	}
	for _, expense := range snapshot.Expenses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, description, amount_cents, date)
			VALUES ($1,$2,$3,$4)
		`, expense.ID, expense.Description, expense.AmountCents, expense.Date)
		if err != nil {
			return err
		}
		s.ids.Observe(expense.ID)
	}
	for _, name := range snapshot.Categories {
		_, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings (id, tax_rate_percent, currency, store_name, management, phone1, phone2)
		VALUES (1,$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id)
		DO UPDATE SET tax_rate_percent = EXCLUDED.tax_rate_percent, currency = EXCLUDED.currency,
			store_name = EXCLUDED.store_name, management = EXCLUDED.management,
			phone1 = EXCLUDED.phone1, phone2 = EXCLUDED.phone2
	`, snapshot.Settings.TaxRatePercent, snapshot.Settings.Currency, snapshot.Settings.StoreName, snapshot.Settings.Management, snapshot.Settings.Phone1, snapshot.Settings.Phone2)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidRecord
	}
	if user.Role == "" {
		user.Role = domain.RoleSeller
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidRecord
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidRecord
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
