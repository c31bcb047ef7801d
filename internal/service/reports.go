package service

import (
	"context"
	"log"
	"sort"
	"time"

	"dukkan/backend/internal/domain"
)

// DailySummary aggregates one trading day: invoice count, sales total, the
// day's expenses, profit (margin on sold quantities minus expenses), top
// sellers by quantity and the current low-stock count. Returned quantities
// are netted out. Closed days are served from the report cache when one is
// configured; today is always recomputed.
func (s *Service) DailySummary(ctx context.Context, date string) (domain.DailySummary, error) {
	today := time.Now().UTC().Format("2006-01-02")
	if date == "" {
		date = today
	}
	from, to, err := dayBounds(date)
	if err != nil {
		return domain.DailySummary{}, err
	}

	cacheable := date < today
	key := "daily-summary:" + date
	if cacheable {
		cached, found, err := s.reports.Get(ctx, key)
		if err != nil {
			log.Printf("[service] WARN: report cache get failed for %s: %v", date, err)
		}
		if found {
			return *cached, nil
		}
	}

	sales, err := s.repo.ListSales(ctx, from, to, 0)
	if err != nil {
		return domain.DailySummary{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, from, to, 0)
	if err != nil {
		return domain.DailySummary{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DailySummary{}, err
	}

	summary := domain.DailySummary{
		Date:        date,
		TopProducts: make([]domain.TopProduct, 0, 5),
	}

	qtyByProduct := map[int64]*domain.TopProduct{}
	for _, sale := range sales {
		summary.InvoiceCount++
		for _, item := range sale.Items {
			soldQty := item.Qty - item.ReturnedQty
			if soldQty < 1 {
				continue
			}
			summary.SalesTotalCents += int64(soldQty) * item.PriceCents
			summary.ProfitCents += int64(soldQty) * (item.PriceCents - item.CostCents)

			top := qtyByProduct[item.ProductID]
			if top == nil {
				top = &domain.TopProduct{ProductID: item.ProductID, Name: item.Name}
				qtyByProduct[item.ProductID] = top
			}
			top.Qty += soldQty
		}
	}

	for _, expense := range expenses {
		summary.ExpensesCents += expense.AmountCents
	}
	summary.ProfitCents -= summary.ExpensesCents

	ranked := make([]domain.TopProduct, 0, len(qtyByProduct))
	for _, top := range qtyByProduct {
		ranked = append(ranked, *top)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Qty == ranked[j].Qty {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Qty > ranked[j].Qty
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	summary.TopProducts = ranked

	for _, p := range products {
		if p.Stock <= domain.LowStockThreshold {
			summary.LowStockCount++
		}
	}

	if cacheable {
		if err := s.reports.Set(ctx, key, &summary, s.reportTTL); err != nil {
			log.Printf("[service] WARN: report cache set failed for %s: %v", date, err)
		}
	}

	return summary, nil
}
