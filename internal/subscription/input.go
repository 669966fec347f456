package subscription

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxNotesLength = 1000

// ValidationError возвращается при разборе недоверенных данных из запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Input содержит данные подписки в том виде, в каком они приходят от клиента.
type Input struct {
	Name            string
	Category        string
	Plan            string
	Amount          decimal.Decimal
	BillingCycle    string
	NextPaymentDate string
	Status          string
	Reminder        string
	Notes           string
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// Parse проверяет входные данные и превращает их в Subscription владельца ownerID.
func (in Input) Parse(ownerID int64) (Subscription, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Subscription{}, invalid("name", "is required")
	}
	plan := strings.TrimSpace(in.Plan)
	if plan == "" {
		return Subscription{}, invalid("plan", "is required")
	}

	category, ok := ParseCategory(strings.TrimSpace(in.Category))
	if !ok {
		return Subscription{}, invalid("category", "unknown category %q", in.Category)
	}
	if !in.Amount.IsPositive() {
		return Subscription{}, invalid("amount", "must be positive")
	}
	cycle, ok := ParseBillingCycle(strings.TrimSpace(in.BillingCycle))
	if !ok {
		return Subscription{}, invalid("billing_cycle", "unknown billing cycle %q", in.BillingCycle)
	}
	next, err := ParseDate(in.NextPaymentDate)
	if err != nil {
		return Subscription{}, invalid("next_payment_date", "invalid date format")
	}

	status := StatusActive
	if strings.TrimSpace(in.Status) != "" {
		if status, ok = ParseStatus(strings.TrimSpace(in.Status)); !ok {
			return Subscription{}, invalid("status", "unknown status %q", in.Status)
		}
	}
	reminder, ok := ParseReminderPolicy(in.Reminder)
	if !ok {
		return Subscription{}, invalid("reminder", "unknown reminder %q", in.Reminder)
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return Subscription{}, invalid("notes", "must be at most %d characters", maxNotesLength)
	}

	return Subscription{
		UserID:          ownerID,
		Name:            name,
		Category:        category,
		Plan:            plan,
		Amount:          in.Amount,
		BillingCycle:    cycle,
		NextPaymentDate: next,
		Status:          status,
		Reminder:        reminder,
		Notes:           in.Notes,
	}, nil
}
