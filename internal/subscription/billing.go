package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyDivisor возвращает делитель для приведения суммы к месячной.
// Для неизвестного цикла второе значение false.
func MonthlyDivisor(cycle BillingCycle) (int64, bool) {
	switch cycle {
	case CycleMonthly:
		return 1, true
	case CycleQuarterly:
		return 3, true
	case CycleSemiAnnually:
		return 6, true
	case CycleAnnually:
		return 12, true
	}
	return 0, false
}

// MonthlyEquivalent приводит сумму к месячной стоимости. Неизвестный цикл даёт ноль.
func MonthlyEquivalent(amount decimal.Decimal, cycle BillingCycle) decimal.Decimal {
	divisor, ok := MonthlyDivisor(cycle)
	if !ok {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(divisor))
}

// cycleMonths: для продления неизвестный цикл считается месячным.
func cycleMonths(cycle BillingCycle) int {
	switch cycle {
	case CycleQuarterly:
		return 3
	case CycleSemiAnnually:
		return 6
	case CycleAnnually:
		return 12
	}
	return 1
}

// NextPaymentDate сдвигает дату на один платёжный период. Если в целевом месяце
// нет такого дня, берётся последний день месяца (31 января -> 29 февраля 2024).
func NextPaymentDate(cycle BillingCycle, from time.Time) time.Time {
	return addMonthsClamped(from, cycleMonths(cycle))
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Renew продлевает подписку на один период и делает её активной.
func Renew(s Subscription) Subscription {
	s.NextPaymentDate = NextPaymentDate(s.BillingCycle, s.NextPaymentDate)
	s.Status = StatusActive
	return s
}
