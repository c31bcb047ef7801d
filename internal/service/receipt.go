package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
)

// BuildReceipt renders a sale as printable text plus the raw ESC/POS byte
// stream for the local printer bridge.
func (s *Service) BuildReceipt(ctx context.Context, req domain.ReceiptRequest) (domain.ReceiptResponse, error) {
	if req.SaleID < 1 {
		return domain.ReceiptResponse{}, store.ErrInvalidRecord
	}
	sale, err := s.repo.GetSale(ctx, req.SaleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	lines := []string{
		settings.StoreName,
		settings.Management,
	}
	if settings.Phone1 != "" || settings.Phone2 != "" {
		lines = append(lines, strings.TrimSpace(settings.Phone1+" "+settings.Phone2))
	}
	lines = append(lines,
		"========================",
		fmt.Sprintf("فاتورة رقم %d", sale.ID),
		"Date: "+sale.Date.Format("2006-01-02 15:04:05"),
		"Customer: "+sale.CustomerName,
		"------------------------",
	)
	for _, item := range sale.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Qty))
		lines = append(lines, fmt.Sprintf("  %s", formatMoney(int64(item.Qty)*item.PriceCents, settings.Currency)))
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Total : %s", formatMoney(sale.TotalCents, settings.Currency)),
	)
	if sale.PaymentType == domain.PaymentTypeDebt {
		lines = append(lines, "آجل")
	}
	lines = append(lines,
		"========================",
		"شكراً لتعاملكم معنا",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		SaleID:       sale.ID,
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		PreviewText:  strings.Join(lines, "\n"),
		FileName:     fmt.Sprintf("receipt-%d.bin", sale.ID),
	}, nil
}

func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
