package subscription

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BillingCycle string

const (
	CycleMonthly      BillingCycle = "Monthly"
	CycleQuarterly    BillingCycle = "Quarterly"
	CycleSemiAnnually BillingCycle = "Semi-Annually"
	CycleAnnually     BillingCycle = "Annually"
)

var billingCycles = []BillingCycle{CycleMonthly, CycleQuarterly, CycleSemiAnnually, CycleAnnually}

type Status string

const (
	StatusActive       Status = "active"
	StatusExpired      Status = "expired"
	StatusRenewingSoon Status = "renewing soon"
	StatusCanceled     Status = "canceled"
)

var statuses = []Status{StatusActive, StatusExpired, StatusRenewingSoon, StatusCanceled}

// ReminderPolicy задаёт заранее выбранное время напоминания. Пустое значение означает,
// что используется настройка пользователя.
type ReminderPolicy string

const (
	ReminderUnset ReminderPolicy = ""
	ReminderNone  ReminderPolicy = "None"
	Reminder1Day  ReminderPolicy = "1 day before"
	Reminder3Days ReminderPolicy = "3 days before"
	Reminder1Week ReminderPolicy = "1 week before"
)

var reminderPolicies = []ReminderPolicy{ReminderNone, Reminder1Day, Reminder3Days, Reminder1Week}

type Category string

var categories = []Category{"Entertainment", "Software", "Music", "Shopping", "Gaming", "Productivity", "Other"}

type Subscription struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	Name            string          `json:"name" db:"name"`
	Category        Category        `json:"category" db:"category"`
	Plan            string          `json:"plan" db:"plan"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	BillingCycle    BillingCycle    `json:"billing_cycle" db:"billing_cycle"`
	NextPaymentDate time.Time       `json:"next_payment_date" db:"next_payment_date"`
	Status          Status          `json:"status" db:"status"`
	Reminder        ReminderPolicy  `json:"reminder" db:"reminder"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// LeadDays возвращает количество дней, заданное политикой. false, если политика
// отсутствует или равна None.
func (p ReminderPolicy) LeadDays() (int, bool) {
	switch p {
	case Reminder1Day:
		return 1, true
	case Reminder3Days:
		return 3, true
	case Reminder1Week:
		return 7, true
	}
	return 0, false
}

func ParseBillingCycle(raw string) (BillingCycle, bool) {
	for _, c := range billingCycles {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return BillingCycle(raw), false
}

func ParseStatus(raw string) (Status, bool) {
	for _, s := range statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return Status(raw), false
}

// ParseReminderPolicy принимает значения без учёта регистра: в базе по умолчанию
// хранится "none".
func ParseReminderPolicy(raw string) (ReminderPolicy, bool) {
	if strings.TrimSpace(raw) == "" {
		return ReminderUnset, true
	}
	for _, p := range reminderPolicies {
		if strings.EqualFold(raw, string(p)) {
			return p, true
		}
	}
	return ReminderPolicy(raw), false
}

func ParseCategory(raw string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return Category(raw), false
}

// Filter используется при выводе списка подписок на дашборде.
type Filter struct {
	Status Status
	Query  string
}

func (f Filter) Match(s Subscription) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(string(s.Category)), q) ||
		strings.Contains(strings.ToLower(s.Plan), q)
}
