package domain

import "time"

type Product struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Category           string `json:"category"`
	Barcode            string `json:"barcode"`
	PriceCents         int64  `json:"price_cents"`
	CostCents          int64  `json:"cost_cents"`
	PurchasePriceCents int64  `json:"purchase_price_cents"`
	Stock              int    `json:"stock"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Barcode    string `json:"barcode"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	Barcode    *string `json:"barcode,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	CostCents  *int64  `json:"cost_cents,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
}

// ImportSummary reports the outcome of a bulk product import.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type SaleItem struct {
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	CostCents   int64  `json:"cost_cents"`
	Qty         int    `json:"qty"`
	ReturnedQty int    `json:"returned_qty"`
}

type Sale struct {
	ID           int64      `json:"id"`
	Date         time.Time  `json:"date"`
	CustomerName string     `json:"customer_name"`
	PaymentType  string     `json:"payment_type"`
	Items        []SaleItem `json:"items"`
	TotalCents   int64      `json:"total_cents"`
	Cashier      string     `json:"cashier"`
	Returned     bool       `json:"returned"`
}

type SaleDraftItem struct {
	ProductID  int64 `json:"product_id"`
	Qty        int   `json:"qty"`
	PriceCents int64 `json:"price_cents,omitempty"`
}

type SaleDraft struct {
	CustomerName string          `json:"customer_name"`
	PaymentType  string          `json:"payment_type"`
	Items        []SaleDraftItem `json:"items"`
}

type ReturnLine struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type SaleReturnRequest struct {
	Lines []ReturnLine `json:"lines"`
}

type SaleResponse struct {
	Sale Sale `json:"sale"`
}

type PurchaseItem struct {
	ProductID          int64 `json:"product_id"`
	Qty                int   `json:"qty"`
	PurchasePriceCents int64 `json:"purchase_price_cents"`
}

type Purchase struct {
	ID             int64          `json:"id"`
	SupplierID     int64          `json:"supplier_id"`
	Date           time.Time      `json:"date"`
	Items          []PurchaseItem `json:"items"`
	TotalCents     int64          `json:"total_cents"`
	PaidCents      int64          `json:"paid_cents"`
	RemainingCents int64          `json:"remaining_cents"`
}

type PurchaseDraft struct {
	SupplierID int64          `json:"supplier_id"`
	Items      []PurchaseItem `json:"items"`
	PaidCents  int64          `json:"paid_cents"`
}

type PurchaseResponse struct {
	Purchase Purchase `json:"purchase"`
}

type Supplier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SupplierPaymentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type CustomerSettleRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type Expense struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Date        time.Time `json:"date"`
}

type ExpenseCreateRequest struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type Settings struct {
	TaxRatePercent float64 `json:"tax_rate_percent"`
	Currency       string  `json:"currency"`
	StoreName      string  `json:"store_name"`
	Management     string  `json:"management"`
	Phone1         string  `json:"phone1"`
	Phone2         string  `json:"phone2"`
}

type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
}

type DailySummary struct {
	Date            string       `json:"date"`
	InvoiceCount    int64        `json:"invoice_count"`
	SalesTotalCents int64        `json:"sales_total_cents"`
	ExpensesCents   int64        `json:"expenses_cents"`
	ProfitCents     int64        `json:"profit_cents"`
	TopProducts     []TopProduct `json:"top_products"`
	LowStockCount   int          `json:"low_stock_count"`
}

// Snapshot is a full copy of every collection, used for backup and restore.
type Snapshot struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Products   []Product  `json:"products"`
	Sales      []Sale     `json:"sales"`
	Purchases  []Purchase `json:"purchases"`
	Suppliers  []Supplier `json:"suppliers"`
	Customers  []Customer `json:"customers"`
	Expenses   []Expense  `json:"expenses"`
	Categories []string   `json:"categories"`
	Settings   Settings   `json:"settings"`
}

type ReceiptRequest struct {
	SaleID int64 `json:"sale_id"`
}

type ReceiptResponse struct {
	SaleID       int64  `json:"sale_id"`
	PreviewText  string `json:"preview_text"`
	EscposBase64 string `json:"escpos_base64"`
	FileName     string `json:"file_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type SellerCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SellerUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	PaymentTypeCash = "cash"
	PaymentTypeDebt = "debt"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// WalkInCustomer is the label stored on cash sales without a named customer.
const WalkInCustomer = "عميل نقدي"

// LowStockThreshold marks products that need restocking on the dashboard.
const LowStockThreshold = 10

// DefaultCategories seeds a fresh store (plumbing supplies shop).
var DefaultCategories = []string{"مواسير", "خلاطات", "محابس", "وصلات", "أخرى"}

func DefaultSettings() Settings {
	return Settings{
		TaxRatePercent: 0,
		Currency:       "ج.م",
		StoreName:      "أولاد الخواص",
		Management:     "إدارة",
		Phone1:         "",
		Phone2:         "",
	}
}
