package subscription

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const upcomingWindowDays = 7

type Stats struct {
	ActiveCount           int             `json:"active_count"`
	NormalizedMonthlyCost decimal.Decimal `json:"normalized_monthly_cost"`
	UpcomingRenewalCount  int             `json:"upcoming_renewal_count"`
	UpcomingRenewalCost   decimal.Decimal `json:"upcoming_renewal_cost"`
}

// ComputeStats сводит подписки пользователя в статистику для дашборда.
// Функция чистая: результат зависит только от subs и now.
func ComputeStats(subs []Subscription, now time.Time) Stats {
	stats := Stats{
		NormalizedMonthlyCost: decimal.Zero,
		UpcomingRenewalCost:   decimal.Zero,
	}
	windowEnd := now.AddDate(0, 0, upcomingWindowDays)

	for _, s := range subs {
		if s.Status == StatusActive {
			stats.ActiveCount++
		}
		if s.Status == StatusActive || s.Status == StatusRenewingSoon {
			stats.NormalizedMonthlyCost = stats.NormalizedMonthlyCost.Add(MonthlyEquivalent(s.Amount, s.BillingCycle))
		}
		// окно включительно с обеих сторон, статус не учитывается
		if !s.NextPaymentDate.Before(now) && !s.NextPaymentDate.After(windowEnd) {
			stats.UpcomingRenewalCount++
			stats.UpcomingRenewalCost = stats.UpcomingRenewalCost.Add(s.Amount)
		}
	}

	return stats
}

type CategorySpend struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// SpendingByCategory суммирует исходные суммы подписок по категориям.
func SpendingByCategory(subs []Subscription) []CategorySpend {
	index := make(map[Category]int)
	var out []CategorySpend

	for _, s := range subs {
		i, ok := index[s.Category]
		if !ok {
			i = len(out)
			index[s.Category] = i
			out = append(out, CategorySpend{Category: s.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(s.Amount)
		out[i].Count++
	}

	sort.Slice(out, func(a, b int) bool {
		if c := out[a].Amount.Cmp(out[b].Amount); c != 0 {
			return c > 0
		}
		return out[a].Category < out[b].Category
	})
	return out
}
