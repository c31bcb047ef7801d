package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
)

func TestBuildReceiptRendersSale(t *testing.T) {
	svc, _ := newTestService(t)
	product := mustCreateProduct(t, svc, "وصلة كوع", 800, 450, 20)

	sale, err := svc.RecordSale(sellerCtx(), domain.SaleDraft{
		Items: []domain.SaleDraftItem{{ProductID: product.ID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	receipt, err := svc.BuildReceipt(adminCtx(), domain.ReceiptRequest{SaleID: sale.ID})
	if err != nil {
		t.Fatalf("build receipt: %v", err)
	}

	if !strings.Contains(receipt.PreviewText, "وصلة كوع x3") {
		t.Fatalf("expected item line in preview, got:\n%s", receipt.PreviewText)
	}
	if !strings.Contains(receipt.PreviewText, "24.00") {
		t.Fatalf("expected line total 24.00 in preview, got:\n%s", receipt.PreviewText)
	}

	raw, err := base64.StdEncoding.DecodeString(receipt.EscposBase64)
	if err != nil {
		t.Fatalf("decode escpos payload: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0x1b, 0x40}) {
		t.Fatalf("escpos payload missing printer init sequence")
	}
	if !bytes.HasSuffix(raw, []byte{0x1d, 0x56, 0x41, 0x10}) {
		t.Fatalf("escpos payload missing cut command")
	}
}

func TestBuildReceiptUnknownSale(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.BuildReceipt(adminCtx(), domain.ReceiptRequest{SaleID: 777}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := formatMoney(150075, "ج.م"); got != "1500.75 ج.م" {
		t.Fatalf("unexpected money format %q", got)
	}
	if got := formatMoney(-205, "ج.م"); got != "-2.05 ج.م" {
		t.Fatalf("unexpected negative format %q", got)
	}
}
